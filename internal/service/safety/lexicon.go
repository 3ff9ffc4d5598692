package safety

// The two lists are disjoint by construction. Strict terms block or redact
// content outright. Sensitive terms legitimately occur in historical and
// philosophical narrative; they are watched in logs but never block.

var strictTerms = []string{
	"murder",
	"torture",
	"gore",
	"dismember",
	"behead",
	"massacre",
	"sex",
	"sexual",
	"nude",
	"porn",
	"erotic",
	"rape",
	"drug",
	"cocaine",
	"heroin",
	"meth",
	"alcohol",
	"tobacco",
	"cigarette",
	"suicide",
	"self-harm",
	"racist",
	"slur",
	"nazi",
	"genocide",
	"terrorist",
	"bomb",
	"jihad",
}

var sensitiveTerms = []string{
	"death",
	"died",
	"kill",
	"blood",
	"war",
	"battle",
	"weapon",
	"sword",
	"gun",
	"crime",
	"violence",
	"violent",
	"hate",
	"prison",
	"execution",
	"plague",
	"famine",
}
