package enrich

// Kind classifies the outcome of one stage for one unit.
type Kind int

const (
	// KindOK is a successful model answer.
	KindOK Kind = iota
	// KindEmpty means the unit had no subject; no call was made.
	KindEmpty
	// KindMisconfigured means the stage had no template; no call was made.
	KindMisconfigured
	// KindRateLimitExhausted means every attempt was rate limited.
	KindRateLimitExhausted
	// KindTransientError is any other failed call, tagged with ErrKind.
	KindTransientError
	// KindAbsent marks a grouped row whose partition produced no summary.
	KindAbsent
)

func (k Kind) String() string {
	switch k {
	case KindOK:
		return "ok"
	case KindEmpty:
		return "empty"
	case KindMisconfigured:
		return "misconfigured"
	case KindRateLimitExhausted:
		return "rate_limit_exhausted"
	case KindTransientError:
		return "transient_error"
	case KindAbsent:
		return "absent"
	default:
		return "unknown"
	}
}

// Marker text written into output cells in place of an answer. Consumers can
// filter failed cells on the prefixes.
const (
	APIErrorPrefix    = "API Error: "
	ConfigErrorPrefix = "Config Error: "

	MarkerRateLimitExhausted = APIErrorPrefix + "Max retries exceeded (Rate Limit)."
	MarkerMisconfigured      = ConfigErrorPrefix + "No prompt template provided."
)

// Result is the outcome of one stage for one unit. Exactly one Result exists
// per (unit, stage).
type Result struct {
	Kind Kind
	// Text is the trimmed model answer when Kind is KindOK.
	Text string
	// ErrKind names the failure when Kind is KindTransientError.
	ErrKind string
}

// Success wraps a model answer.
func Success(text string) Result { return Result{Kind: KindOK, Text: text} }

// Empty is the result for a unit without a subject.
func Empty() Result { return Result{Kind: KindEmpty} }

// Misconfigured is the result for a stage without a template.
func Misconfigured() Result { return Result{Kind: KindMisconfigured} }

// RateLimitExhausted is the result when retries ran out on rate limits.
func RateLimitExhausted() Result { return Result{Kind: KindRateLimitExhausted} }

// TransientError is the result of a non-rate-limit failure.
func TransientError(kind string) Result { return Result{Kind: KindTransientError, ErrKind: kind} }

// Absent is the stage-3 result for a grouped row outside every partition.
func Absent() Result { return Result{Kind: KindAbsent} }

// OK reports whether r holds a model answer.
func (r Result) OK() bool { return r.Kind == KindOK }

// Cell renders r as output cell text.
func (r Result) Cell() string {
	switch r.Kind {
	case KindOK:
		return r.Text
	case KindMisconfigured:
		return MarkerMisconfigured
	case KindRateLimitExhausted:
		return MarkerRateLimitExhausted
	case KindTransientError:
		return APIErrorPrefix + r.ErrKind
	default:
		return ""
	}
}
