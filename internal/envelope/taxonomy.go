// PixelRelay - Conversion Event Tracking Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pixelrelay

package envelope

import "sort"

// Platform standard event names.
const (
	PlatformLead                 = "Lead"
	PlatformContact              = "Contact"
	PlatformSchedule             = "Schedule"
	PlatformSubscribe            = "Subscribe"
	PlatformCompleteRegistration = "CompleteRegistration"
	PlatformViewContent          = "ViewContent"
	PlatformSearch               = "Search"
	PlatformCustomizeProduct     = "CustomizeProduct"
	PlatformInitiateCheckout     = "InitiateCheckout"
	PlatformSubmitApplication    = "SubmitApplication"
	PlatformPurchase             = "Purchase"
)

// FallbackPlatformEvent is used for business names missing from the table.
const FallbackPlatformEvent = PlatformLead

// taxonomy maps business event names to platform standard events.
var taxonomy = map[string]string{
	"lead_captured":              PlatformLead,
	"consultation_requested":     PlatformSchedule,
	"consultation_booked":        PlatformSchedule,
	"whatsapp_click":             PlatformContact,
	"phone_click":                PlatformContact,
	"email_click":                PlatformContact,
	"messenger_click":            PlatformContact,
	"callback_requested":         PlatformContact,
	"live_chat_started":          PlatformContact,
	"contact_form_submitted":     PlatformContact,
	"newsletter_signup":          PlatformSubscribe,
	"registration_completed":     PlatformCompleteRegistration,
	"webinar_registration":       PlatformCompleteRegistration,
	"university_view":            PlatformViewContent,
	"program_view":               PlatformViewContent,
	"country_guide_view":         PlatformViewContent,
	"brochure_download":          PlatformViewContent,
	"search_performed":           PlatformSearch,
	"eligibility_check":          PlatformLead,
	"cost_calculator_used":       PlatformCustomizeProduct,
	"scholarship_inquiry":        PlatformLead,
	"application_started":        PlatformInitiateCheckout,
	"application_submitted":      PlatformSubmitApplication,
	"document_uploaded":          PlatformLead,
	"payment_initiated":          PlatformInitiateCheckout,
	"service_fee_paid":           PlatformPurchase,
	"offer_letter_received":      PlatformLead,
	"admission_confirmed":        PlatformLead,
	"visa_application_submitted": PlatformSubmitApplication,
	"visa_approval":              PlatformPurchase,
	"enrollment_completed":       PlatformPurchase,
	"partner_inquiry":            PlatformLead,
}

// PlatformName translates a business event name to the platform's event name.
func PlatformName(business string) string {
	if p, ok := taxonomy[business]; ok {
		return p
	}
	return FallbackPlatformEvent
}

// Mapped reports whether business has an explicit taxonomy entry.
func Mapped(business string) bool {
	_, ok := taxonomy[business]
	return ok
}

// Mapping is one row of the taxonomy table.
type Mapping struct {
	Business string `json:"business"`
	Platform string `json:"platform"`
}

// Catalogue returns the taxonomy table sorted by business name.
func Catalogue() []Mapping {
	out := make([]Mapping, 0, len(taxonomy))
	for b, p := range taxonomy {
		out = append(out, Mapping{Business: b, Platform: p})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Business < out[j].Business })
	return out
}
