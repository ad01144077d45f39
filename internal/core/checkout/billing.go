package checkout

import (
	"context"
	"log"
	"regexp"
	"strings"

	"github.com/storefront/checkout/internal/core/domain"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// BillingForm is the raw billing/contact submission. Field-level problems
// re-render the form inline; they are a different failure class from
// pipeline errors, which redirect or replace the view.
type BillingForm struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Address1    string `json:"address1"`
	Address2    string `json:"address2"`
	City        string `json:"city"`
	PostalCode  string `json:"postalCode"`
	StateCode   string `json:"stateCode"`
	CountryCode string `json:"countryCode"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
}

// BillingResult mirrors the placement result shape for the billing step,
// with the updated basket echoed back on success.
type BillingResult struct {
	Error        bool           `json:"error"`
	CartError    bool           `json:"cartError,omitempty"`
	RedirectURL  string         `json:"redirectUrl,omitempty"`
	FieldErrors  []FieldErrors  `json:"fieldErrors"`
	ServerErrors []string       `json:"serverErrors"`
	Basket       *domain.Basket `json:"order,omitempty"`
}

// SubmitBilling validates the billing address and contact fields, then
// writes both onto the basket in one save. Validation failures are grouped
// per form section, one FieldErrors entry each.
func (s *Service) SubmitBilling(ctx context.Context, sess Session, form BillingForm) BillingResult {
	var groups []FieldErrors
	if errs := validateBillingAddress(form); len(errs) > 0 {
		groups = append(groups, errs)
	}
	if errs := validateContactInfo(form); len(errs) > 0 {
		groups = append(groups, errs)
	}
	if len(groups) > 0 {
		return BillingResult{Error: true, FieldErrors: groups, ServerErrors: []string{}}
	}

	basket, err := s.baskets.Current(ctx, sess.ID)
	if err != nil {
		log.Printf("checkout: load basket for session %s: %v", sess.ID, err)
		return BillingResult{Error: true, FieldErrors: []FieldErrors{}, ServerErrors: []string{technicalErrorMessage}}
	}
	if basket == nil {
		return BillingResult{
			Error:        true,
			CartError:    true,
			RedirectURL:  s.routes.CartURL(),
			FieldErrors:  []FieldErrors{},
			ServerErrors: []string{},
		}
	}

	basket.BillingAddress = &domain.Address{
		FirstName:   form.FirstName,
		LastName:    form.LastName,
		Address1:    form.Address1,
		Address2:    form.Address2,
		City:        form.City,
		PostalCode:  form.PostalCode,
		StateCode:   form.StateCode,
		CountryCode: form.CountryCode,
		Phone:       form.Phone,
	}
	basket.CustomerEmail = form.Email
	if err := s.baskets.Save(ctx, basket); err != nil {
		log.Printf("checkout: save billing address for session %s: %v", sess.ID, err)
		return BillingResult{Error: true, FieldErrors: []FieldErrors{}, ServerErrors: []string{technicalErrorMessage}}
	}

	s.reconcileMultiShipping(ctx, sess, basket)

	return BillingResult{FieldErrors: []FieldErrors{}, ServerErrors: []string{}, Basket: basket}
}

// SubmitPayment processes the payment form through the registered form
// processor, attaches the instrument to the basket, re-prices, and then
// delegates to PlaceOrder as the second inline route into the pipeline.
func (s *Service) SubmitPayment(ctx context.Context, sess Session, form map[string]string) PlacementResult {
	formResult := s.hooks.PaymentFormProcessor().ProcessForm(ctx, form)
	if len(formResult.FieldErrors) > 0 || len(formResult.ServerErrors) > 0 {
		var groups []FieldErrors
		if len(formResult.FieldErrors) > 0 {
			groups = append(groups, FieldErrors(formResult.FieldErrors))
		}
		return fieldErrorResult(groups, formResult.ServerErrors)
	}

	basket, err := s.baskets.Current(ctx, sess.ID)
	if err != nil {
		log.Printf("checkout: load basket for session %s: %v", sess.ID, err)
		return technicalErrorResult()
	}
	if basket == nil {
		return cartErrorResult(s.routes.CartURL())
	}

	if err := s.hooks.ProductValidator().ValidateProducts(ctx, basket); err != nil {
		log.Printf("checkout: product validation for session %s: %v", sess.ID, err)
		return cartErrorResult(s.routes.CartURL())
	}

	processor := s.hooks.PaymentProcessor(formResult.Info.MethodID)
	if err := processor.Handle(ctx, basket, formResult.Info); err != nil {
		log.Printf("checkout: payment handle for session %s: %v", sess.ID, err)
		return fieldErrorResult(nil, []string{technicalErrorMessage})
	}

	totals, err := s.pricing.Calculate(ctx, basket)
	if err != nil {
		log.Printf("checkout: pricing recalculation for session %s: %v", sess.ID, err)
		return fieldErrorResult(nil, []string{technicalErrorMessage})
	}
	basket.Totals = totals
	if err := s.baskets.Save(ctx, basket); err != nil {
		log.Printf("checkout: persist basket for session %s: %v", sess.ID, err)
		return fieldErrorResult(nil, []string{technicalErrorMessage})
	}

	if err := calculatePaymentTransaction(basket); err != nil {
		log.Printf("checkout: payment transaction for session %s: %v", sess.ID, err)
		return fieldErrorResult(nil, []string{technicalErrorMessage})
	}

	s.reconcileMultiShipping(ctx, sess, basket)

	return s.PlaceOrder(ctx, sess)
}

// reconcileMultiShipping drops the multi-shipping flag when the basket no
// longer has multiple shipments.
func (s *Service) reconcileMultiShipping(ctx context.Context, sess Session, basket *domain.Basket) {
	multi, err := s.cache.GetFlag(ctx, sess.ID, FlagUsingMultiShipping)
	if err != nil {
		log.Printf("checkout: read multi-shipping flag for session %s: %v", sess.ID, err)
		return
	}
	if multi && len(basket.Shipments) < 2 {
		if err := s.cache.SetFlag(ctx, sess.ID, FlagUsingMultiShipping, false); err != nil {
			log.Printf("checkout: reset multi-shipping flag for session %s: %v", sess.ID, err)
		}
	}
}

func validateBillingAddress(form BillingForm) FieldErrors {
	errs := FieldErrors{}
	requireField(errs, "firstName", form.FirstName)
	requireField(errs, "lastName", form.LastName)
	requireField(errs, "address1", form.Address1)
	requireField(errs, "city", form.City)
	requireField(errs, "postalCode", form.PostalCode)
	requireField(errs, "countryCode", form.CountryCode)
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func validateContactInfo(form BillingForm) FieldErrors {
	errs := FieldErrors{}
	switch {
	case strings.TrimSpace(form.Email) == "":
		errs["email"] = "This field is required."
	case !emailPattern.MatchString(form.Email):
		errs["email"] = "Enter a valid email address."
	}
	requireField(errs, "phone", form.Phone)
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func requireField(errs FieldErrors, name, value string) {
	if strings.TrimSpace(value) == "" {
		errs[name] = "This field is required."
	}
}
