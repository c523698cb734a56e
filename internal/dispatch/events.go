// PixelRelay - Conversion Event Tracking Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pixelrelay

package dispatch

import (
	"github.com/tomtom215/pixelrelay/internal/models"
	"github.com/tomtom215/pixelrelay/internal/pii"
)

// Fixed value tiers in the default currency.
const (
	ValueConsultationBooked       = 500
	ValueApplicationSubmitted     = 1000
	ValueServiceFeeDefault        = 5000
	ValueOfferLetterReceived      = 10000
	ValueVisaApplicationSubmitted = 15000
	ValueAdmissionConfirmed       = 25000
	ValueVisaApproval             = 50000
	ValueEnrollmentCompleted      = 100000
)

// Event is one business event. The set of implementations is closed: every
// variant is declared in this file.
type Event interface {
	// Name is the business event name, e.g. "visa_approval".
	Name() string

	// Base returns the fields shared by every variant.
	Base() *Common

	shape() Shape
}

// Common holds the fields every business event carries.
type Common struct {
	// EventID is the caller-supplied deduplication key; empty means generate.
	EventID string

	// Source is where on the site the event was triggered.
	Source string

	SourceURL string

	User pii.UserInput

	// Attribution holds caller-supplied identifiers. Non-empty fields win over
	// the ones resolved from the request.
	Attribution models.AttributionContext
}

// Base implements Event.
func (c *Common) Base() *Common { return c }

// Shape is the envelope payload contributed by a variant.
type Shape struct {
	Category    string
	ContentName string
	Value       float64

	// Destination is the study destination country; empty when the variant
	// has no destination concept.
	Destination string

	Fields map[string]any
}

// destination picks the explicit country, then the user's country.
func destination(country string, user pii.UserInput) string {
	return orNotSpecified(firstNonEmpty(country, user.Country))
}

func orNotSpecified(s string) string {
	if s == "" {
		return models.NotSpecified
	}
	return s
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// Leads and consultations

// LeadCaptured is a lead form submitted for a program.
type LeadCaptured struct {
	Common
	Country string
	Program string
}

func (*LeadCaptured) Name() string { return "lead_captured" }
func (e *LeadCaptured) shape() Shape {
	return Shape{
		Category:    "lead",
		ContentName: orNotSpecified(e.Program),
		Destination: destination(e.Country, e.User),
		Fields:      map[string]any{"program": orNotSpecified(e.Program)},
	}
}

// ConsultationRequested is a consultation asked for without a confirmed slot.
type ConsultationRequested struct {
	Common
	Country          string
	ConsultationType string
	PreferredDate    string
}

func (*ConsultationRequested) Name() string { return "consultation_requested" }
func (e *ConsultationRequested) shape() Shape {
	return consultationShape(e.Country, e.ConsultationType, e.PreferredDate, e.User, 0)
}

// ConsultationBooked is a consultation with a confirmed slot.
type ConsultationBooked struct {
	Common
	Country          string
	ConsultationType string
	PreferredDate    string
}

func (*ConsultationBooked) Name() string { return "consultation_booked" }
func (e *ConsultationBooked) shape() Shape {
	return consultationShape(e.Country, e.ConsultationType, e.PreferredDate, e.User, ValueConsultationBooked)
}

func consultationShape(country, kind, date string, user pii.UserInput, value float64) Shape {
	return Shape{
		Category:    "consultation",
		ContentName: orNotSpecified(kind),
		Value:       value,
		Destination: destination(country, user),
		Fields: map[string]any{
			"consultation_type": orNotSpecified(kind),
			"preferred_date":    orNotSpecified(date),
		},
	}
}

// Contact channels

// WhatsAppClick is a click on a WhatsApp contact link.
type WhatsAppClick struct{ Common }

func (*WhatsAppClick) Name() string { return "whatsapp_click" }
func (e *WhatsAppClick) shape() Shape { return contactShape("whatsapp") }

// PhoneClick is a click on a tel: link.
type PhoneClick struct{ Common }

func (*PhoneClick) Name() string { return "phone_click" }
func (e *PhoneClick) shape() Shape { return contactShape("phone") }

// EmailClick is a click on a mailto: link.
type EmailClick struct{ Common }

func (*EmailClick) Name() string { return "email_click" }
func (e *EmailClick) shape() Shape { return contactShape("email") }

// MessengerClick is a click on a Messenger contact link.
type MessengerClick struct{ Common }

func (*MessengerClick) Name() string { return "messenger_click" }
func (e *MessengerClick) shape() Shape { return contactShape("messenger") }

// LiveChatStarted is the first message of a live chat session.
type LiveChatStarted struct{ Common }

func (*LiveChatStarted) Name() string { return "live_chat_started" }
func (e *LiveChatStarted) shape() Shape { return contactShape("live_chat") }

// CallbackRequested is a request to be called back.
type CallbackRequested struct {
	Common
	PreferredTime string
}

func (*CallbackRequested) Name() string { return "callback_requested" }
func (e *CallbackRequested) shape() Shape {
	s := contactShape("callback")
	s.Fields["preferred_time"] = orNotSpecified(e.PreferredTime)
	return s
}

// ContactFormSubmitted is a general contact form submission.
type ContactFormSubmitted struct {
	Common
	Subject string
}

func (*ContactFormSubmitted) Name() string { return "contact_form_submitted" }
func (e *ContactFormSubmitted) shape() Shape {
	s := contactShape("contact_form")
	s.ContentName = orNotSpecified(e.Subject)
	return s
}

func contactShape(method string) Shape {
	return Shape{
		Category:    "contact",
		ContentName: method,
		Fields:      map[string]any{"contact_method": method},
	}
}

// Subscriptions and registrations

// NewsletterSignup is a newsletter subscription.
type NewsletterSignup struct{ Common }

func (*NewsletterSignup) Name() string { return "newsletter_signup" }
func (e *NewsletterSignup) shape() Shape {
	return Shape{Category: "newsletter", ContentName: "newsletter"}
}

// RegistrationCompleted is a finished account registration.
type RegistrationCompleted struct {
	Common
	Method string
}

func (*RegistrationCompleted) Name() string { return "registration_completed" }
func (e *RegistrationCompleted) shape() Shape {
	return Shape{
		Category:    "registration",
		ContentName: "account",
		Fields:      map[string]any{"registration_method": orNotSpecified(e.Method)},
	}
}

// WebinarRegistration is a sign-up for a webinar.
type WebinarRegistration struct {
	Common
	WebinarName string
}

func (*WebinarRegistration) Name() string { return "webinar_registration" }
func (e *WebinarRegistration) shape() Shape {
	return Shape{Category: "webinar", ContentName: orNotSpecified(e.WebinarName)}
}

// Content views

// UniversityView is a view of a university page.
type UniversityView struct {
	Common
	University string
	Country    string
}

func (*UniversityView) Name() string { return "university_view" }
func (e *UniversityView) shape() Shape {
	return Shape{
		Category:    "university",
		ContentName: orNotSpecified(e.University),
		Destination: destination(e.Country, e.User),
	}
}

// ProgramView is a view of a program page.
type ProgramView struct {
	Common
	Program    string
	University string
	Country    string
}

func (*ProgramView) Name() string { return "program_view" }
func (e *ProgramView) shape() Shape {
	return Shape{
		Category:    "program",
		ContentName: orNotSpecified(e.Program),
		Destination: destination(e.Country, e.User),
		Fields:      map[string]any{"university": orNotSpecified(e.University)},
	}
}

// CountryGuideView is a view of a study destination guide.
type CountryGuideView struct {
	Common
	Country string
}

func (*CountryGuideView) Name() string { return "country_guide_view" }
func (e *CountryGuideView) shape() Shape {
	dest := destination(e.Country, e.User)
	return Shape{Category: "country_guide", ContentName: dest, Destination: dest}
}

// BrochureDownload is a downloaded brochure or guide.
type BrochureDownload struct {
	Common
	DocumentName string
	University   string
}

func (*BrochureDownload) Name() string { return "brochure_download" }
func (e *BrochureDownload) shape() Shape {
	return Shape{
		Category:    "brochure",
		ContentName: orNotSpecified(e.DocumentName),
		Fields:      map[string]any{"university": orNotSpecified(e.University)},
	}
}

// SearchPerformed is a site search.
type SearchPerformed struct {
	Common
	SearchString string
	Country      string
}

func (*SearchPerformed) Name() string { return "search_performed" }
func (e *SearchPerformed) shape() Shape {
	return Shape{
		Category:    "search",
		ContentName: "search",
		Destination: destination(e.Country, e.User),
		Fields:      map[string]any{"search_string": orNotSpecified(e.SearchString)},
	}
}

// Tools and inquiries

// EligibilityCheck is a completed eligibility checker.
type EligibilityCheck struct {
	Common
	Country string
	Program string
	Result  string
}

func (*EligibilityCheck) Name() string { return "eligibility_check" }
func (e *EligibilityCheck) shape() Shape {
	return Shape{
		Category:    "eligibility",
		ContentName: orNotSpecified(e.Program),
		Destination: destination(e.Country, e.User),
		Fields:      map[string]any{"eligibility_result": orNotSpecified(e.Result)},
	}
}

// CostCalculatorUsed is a completed cost calculation.
type CostCalculatorUsed struct {
	Common
	Country       string
	EstimatedCost float64
}

func (*CostCalculatorUsed) Name() string { return "cost_calculator_used" }
func (e *CostCalculatorUsed) shape() Shape {
	return Shape{
		Category:    "cost_calculator",
		ContentName: "cost_calculator",
		Destination: destination(e.Country, e.User),
		Fields:      map[string]any{"estimated_cost": e.EstimatedCost},
	}
}

// ScholarshipInquiry is a question about a scholarship.
type ScholarshipInquiry struct {
	Common
	Country     string
	Scholarship string
}

func (*ScholarshipInquiry) Name() string { return "scholarship_inquiry" }
func (e *ScholarshipInquiry) shape() Shape {
	return Shape{
		Category:    "scholarship",
		ContentName: orNotSpecified(e.Scholarship),
		Destination: destination(e.Country, e.User),
	}
}

// PartnerInquiry is a partnership inquiry from an institution or agent.
type PartnerInquiry struct {
	Common
	CompanyName string
}

func (*PartnerInquiry) Name() string { return "partner_inquiry" }
func (e *PartnerInquiry) shape() Shape {
	return Shape{Category: "partnership", ContentName: orNotSpecified(e.CompanyName)}
}

// Application funnel

// ApplicationStarted is the first step of an application.
type ApplicationStarted struct {
	Common
	University string
	Program    string
	Country    string
}

func (*ApplicationStarted) Name() string { return "application_started" }
func (e *ApplicationStarted) shape() Shape {
	return applicationShape("application", e.University, e.Program, e.Country, e.User, 0)
}

// ApplicationSubmitted is a submitted application.
type ApplicationSubmitted struct {
	Common
	University string
	Program    string
	Country    string
}

func (*ApplicationSubmitted) Name() string { return "application_submitted" }
func (e *ApplicationSubmitted) shape() Shape {
	return applicationShape("application", e.University, e.Program, e.Country, e.User, ValueApplicationSubmitted)
}

// DocumentUploaded is a document attached to an application.
type DocumentUploaded struct {
	Common
	DocumentName string
}

func (*DocumentUploaded) Name() string { return "document_uploaded" }
func (e *DocumentUploaded) shape() Shape {
	return Shape{Category: "document", ContentName: orNotSpecified(e.DocumentName)}
}

// PaymentInitiated is a payment the visitor started but has not completed.
type PaymentInitiated struct {
	Common
	Service string
	Amount  float64
}

func (*PaymentInitiated) Name() string { return "payment_initiated" }
func (e *PaymentInitiated) shape() Shape {
	return Shape{Category: "payment", ContentName: orNotSpecified(e.Service), Value: e.Amount}
}

// ServiceFeePaid is a completed service fee payment.
type ServiceFeePaid struct {
	Common
	Service string
	Amount  float64
}

func (*ServiceFeePaid) Name() string { return "service_fee_paid" }
func (e *ServiceFeePaid) shape() Shape {
	value := e.Amount
	if value <= 0 {
		value = ValueServiceFeeDefault
	}
	return Shape{Category: "payment", ContentName: orNotSpecified(e.Service), Value: value}
}

// OfferLetterReceived is an offer letter issued to the applicant.
type OfferLetterReceived struct {
	Common
	University string
	Country    string
}

func (*OfferLetterReceived) Name() string { return "offer_letter_received" }
func (e *OfferLetterReceived) shape() Shape {
	return Shape{
		Category:    "offer_letter",
		ContentName: orNotSpecified(e.University),
		Value:       ValueOfferLetterReceived,
		Destination: destination(e.Country, e.User),
	}
}

// AdmissionConfirmed is an accepted offer.
type AdmissionConfirmed struct {
	Common
	University string
	Program    string
	Country    string
}

func (*AdmissionConfirmed) Name() string { return "admission_confirmed" }
func (e *AdmissionConfirmed) shape() Shape {
	return applicationShape("admission", e.University, e.Program, e.Country, e.User, ValueAdmissionConfirmed)
}

// VisaApplicationSubmitted is a lodged visa application.
type VisaApplicationSubmitted struct {
	Common
	Country string
}

func (*VisaApplicationSubmitted) Name() string { return "visa_application_submitted" }
func (e *VisaApplicationSubmitted) shape() Shape {
	dest := destination(e.Country, e.User)
	return Shape{Category: "visa", ContentName: dest, Value: ValueVisaApplicationSubmitted, Destination: dest}
}

// VisaApproval is a granted visa.
type VisaApproval struct {
	Common
	University string
	Country    string
}

func (*VisaApproval) Name() string { return "visa_approval" }
func (e *VisaApproval) shape() Shape {
	return Shape{
		Category:    "visa",
		ContentName: orNotSpecified(e.University),
		Value:       ValueVisaApproval,
		Destination: destination(e.Country, e.User),
		Fields:      map[string]any{"university": orNotSpecified(e.University)},
	}
}

// EnrollmentCompleted is a student enrolled at the university.
type EnrollmentCompleted struct {
	Common
	University string
	Program    string
	Country    string
}

func (*EnrollmentCompleted) Name() string { return "enrollment_completed" }
func (e *EnrollmentCompleted) shape() Shape {
	return applicationShape("enrollment", e.University, e.Program, e.Country, e.User, ValueEnrollmentCompleted)
}

func applicationShape(category, university, program, country string, user pii.UserInput, value float64) Shape {
	return Shape{
		Category:    category,
		ContentName: orNotSpecified(program),
		Value:       value,
		Destination: destination(country, user),
		Fields:      map[string]any{"university": orNotSpecified(university)},
	}
}
