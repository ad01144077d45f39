package checkout

// ErrorStage points the client back to the incomplete checkout stage.
type ErrorStage struct {
	Stage string `json:"stage"`
	Step  string `json:"step"`
}

// FieldErrors maps malformed field names to messages for one form group.
type FieldErrors map[string]string

// PlacementResult is the JSON-shaped outcome of a placement attempt. Exactly
// one of the error shapes is populated on failure; on success OrderID,
// OrderToken and ContinueURL are set. A pending payment redirect is reported
// as a non-error result whose ContinueURL points at the payment provider.
type PlacementResult struct {
	Error          bool          `json:"error"`
	OrderID        string        `json:"orderID,omitempty"`
	OrderToken     string        `json:"orderToken,omitempty"`
	ContinueURL    string        `json:"continueUrl,omitempty"`
	PaymentPending bool          `json:"paymentPending,omitempty"`
	ErrorMessage   string        `json:"errorMessage,omitempty"`
	ErrorStage     *ErrorStage   `json:"errorStage,omitempty"`
	FieldErrors    []FieldErrors `json:"fieldErrors"`
	ServerErrors   []string      `json:"serverErrors"`
	CartError      bool          `json:"cartError,omitempty"`
	RedirectURL    string        `json:"redirectUrl,omitempty"`
}

// technicalErrorMessage is the only text surfaced for infrastructure and
// integration failures. Detail goes to the log, never to the browser.
const technicalErrorMessage = "We're sorry, a technical error occurred. Please try again."

func baseResult() PlacementResult {
	return PlacementResult{
		FieldErrors:  []FieldErrors{},
		ServerErrors: []string{},
	}
}

func successResult(orderID, orderToken, continueURL string) PlacementResult {
	r := baseResult()
	r.OrderID = orderID
	r.OrderToken = orderToken
	r.ContinueURL = continueURL
	return r
}

func pendingResult(orderID, orderToken, providerURL string) PlacementResult {
	r := successResult(orderID, orderToken, providerURL)
	r.PaymentPending = true
	return r
}

func cartErrorResult(redirectURL string) PlacementResult {
	r := baseResult()
	r.Error = true
	r.CartError = true
	r.RedirectURL = redirectURL
	return r
}

func validationErrorResult(message string) PlacementResult {
	r := baseResult()
	r.Error = true
	r.ErrorMessage = message
	return r
}

func stageErrorResult(stage, step, message string) PlacementResult {
	r := baseResult()
	r.Error = true
	r.ErrorStage = &ErrorStage{Stage: stage, Step: step}
	r.ErrorMessage = message
	return r
}

func technicalErrorResult() PlacementResult {
	r := baseResult()
	r.Error = true
	r.ErrorMessage = technicalErrorMessage
	return r
}

func fraudRejectionResult(redirectURL string) PlacementResult {
	r := baseResult()
	r.Error = true
	r.CartError = true
	r.RedirectURL = redirectURL
	r.ErrorMessage = technicalErrorMessage
	return r
}

func fieldErrorResult(groups []FieldErrors, serverErrors []string) PlacementResult {
	r := baseResult()
	r.Error = true
	if groups != nil {
		r.FieldErrors = groups
	}
	if serverErrors != nil {
		r.ServerErrors = serverErrors
	}
	return r
}
