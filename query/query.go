package query

// RequestPayload is the body posted to the answering backend.
type RequestPayload struct {
	Query string `json:"query"`
}

// ResponseBody is what the backend answers with. Answer is a pointer so that a body without an
// answer field can be told apart from an empty answer.
type ResponseBody struct {
	Answer  *string  `json:"answer"`
	Sources []string `json:"sources,omitempty"`
}

type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// Result is the outcome of a single submitted query, handed to whatever renders it
type Result struct {
	Outcome      Outcome  `json:"outcome"`
	Answer       string   `json:"answer,omitempty"`
	Sources      []string `json:"sources"`
	ErrorMessage string   `json:"error,omitempty"`
}

// Success builds a successful result. A nil sources slice is normalised to an empty one.
func Success(answer string, sources []string) Result {
	if sources == nil {
		sources = []string{}
	}
	return Result{
		Outcome: OutcomeSuccess,
		Answer:  answer,
		Sources: sources,
	}
}

func Failure(message string) Result {
	if message == "" {
		message = "unknown error"
	}
	return Result{
		Outcome:      OutcomeFailure,
		Sources:      []string{},
		ErrorMessage: message,
	}
}

func (r Result) Failed() bool {
	return r.Outcome != OutcomeSuccess
}
