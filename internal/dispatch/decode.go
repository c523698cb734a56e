// PixelRelay - Conversion Event Tracking Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pixelrelay

package dispatch

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/pixelrelay/internal/models"
	"github.com/tomtom215/pixelrelay/internal/pii"
)

// ErrInvalidEventType is returned for event names outside the closed set.
var ErrInvalidEventType = errors.New("invalid event type")

type decoder func(f fields, c Common) Event

var registry = map[string]decoder{
	"lead_captured": func(f fields, c Common) Event {
		return &LeadCaptured{Common: c, Country: f.country(), Program: f.str("program", "programName")}
	},
	"consultation_requested": func(f fields, c Common) Event {
		return &ConsultationRequested{Common: c, Country: f.country(),
			ConsultationType: f.str("consultationType", "consultation_type", "type"),
			PreferredDate:    f.str("preferredDate", "preferred_date", "date")}
	},
	"consultation_booked": func(f fields, c Common) Event {
		return &ConsultationBooked{Common: c, Country: f.country(),
			ConsultationType: f.str("consultationType", "consultation_type", "type"),
			PreferredDate:    f.str("preferredDate", "preferred_date", "date")}
	},
	"whatsapp_click":    func(_ fields, c Common) Event { return &WhatsAppClick{Common: c} },
	"phone_click":       func(_ fields, c Common) Event { return &PhoneClick{Common: c} },
	"email_click":       func(_ fields, c Common) Event { return &EmailClick{Common: c} },
	"messenger_click":   func(_ fields, c Common) Event { return &MessengerClick{Common: c} },
	"live_chat_started": func(_ fields, c Common) Event { return &LiveChatStarted{Common: c} },
	"callback_requested": func(f fields, c Common) Event {
		return &CallbackRequested{Common: c, PreferredTime: f.str("preferredTime", "preferred_time", "time")}
	},
	"contact_form_submitted": func(f fields, c Common) Event {
		return &ContactFormSubmitted{Common: c, Subject: f.str("subject")}
	},
	"newsletter_signup": func(_ fields, c Common) Event { return &NewsletterSignup{Common: c} },
	"registration_completed": func(f fields, c Common) Event {
		return &RegistrationCompleted{Common: c, Method: f.str("method", "registrationMethod", "registration_method")}
	},
	"webinar_registration": func(f fields, c Common) Event {
		return &WebinarRegistration{Common: c, WebinarName: f.str("webinarName", "webinar_name", "webinar")}
	},
	"university_view": func(f fields, c Common) Event {
		return &UniversityView{Common: c, University: f.university(), Country: f.country()}
	},
	"program_view": func(f fields, c Common) Event {
		return &ProgramView{Common: c, Program: f.str("program", "programName"), University: f.university(), Country: f.country()}
	},
	"country_guide_view": func(f fields, c Common) Event {
		return &CountryGuideView{Common: c, Country: f.country()}
	},
	"brochure_download": func(f fields, c Common) Event {
		return &BrochureDownload{Common: c, DocumentName: f.document(), University: f.university()}
	},
	"search_performed": func(f fields, c Common) Event {
		return &SearchPerformed{Common: c, SearchString: f.str("searchString", "search_string", "query"), Country: f.country()}
	},
	"eligibility_check": func(f fields, c Common) Event {
		return &EligibilityCheck{Common: c, Country: f.country(), Program: f.str("program", "programName"),
			Result: f.str("result", "eligibilityResult", "eligibility_result")}
	},
	"cost_calculator_used": func(f fields, c Common) Event {
		return &CostCalculatorUsed{Common: c, Country: f.country(), EstimatedCost: f.num("estimatedCost", "estimated_cost", "cost")}
	},
	"scholarship_inquiry": func(f fields, c Common) Event {
		return &ScholarshipInquiry{Common: c, Country: f.country(), Scholarship: f.str("scholarship", "scholarshipName", "scholarship_name")}
	},
	"application_started": func(f fields, c Common) Event {
		return &ApplicationStarted{Common: c, University: f.university(), Program: f.str("program", "programName"), Country: f.country()}
	},
	"application_submitted": func(f fields, c Common) Event {
		return &ApplicationSubmitted{Common: c, University: f.university(), Program: f.str("program", "programName"), Country: f.country()}
	},
	"document_uploaded": func(f fields, c Common) Event {
		return &DocumentUploaded{Common: c, DocumentName: f.document()}
	},
	"payment_initiated": func(f fields, c Common) Event {
		return &PaymentInitiated{Common: c, Service: f.str("service", "serviceName", "service_name"), Amount: f.num("amount", "value")}
	},
	"service_fee_paid": func(f fields, c Common) Event {
		return &ServiceFeePaid{Common: c, Service: f.str("service", "serviceName", "service_name"), Amount: f.num("amount", "value")}
	},
	"offer_letter_received": func(f fields, c Common) Event {
		return &OfferLetterReceived{Common: c, University: f.university(), Country: f.country()}
	},
	"admission_confirmed": func(f fields, c Common) Event {
		return &AdmissionConfirmed{Common: c, University: f.university(), Program: f.str("program", "programName"), Country: f.country()}
	},
	"visa_application_submitted": func(f fields, c Common) Event {
		return &VisaApplicationSubmitted{Common: c, Country: f.country()}
	},
	"visa_approval": func(f fields, c Common) Event {
		return &VisaApproval{Common: c, University: f.university(), Country: f.country()}
	},
	"enrollment_completed": func(f fields, c Common) Event {
		return &EnrollmentCompleted{Common: c, University: f.university(), Program: f.str("program", "programName"), Country: f.country()}
	},
	"partner_inquiry": func(f fields, c Common) Event {
		return &PartnerInquiry{Common: c, CompanyName: f.str("companyName", "company_name", "company")}
	},
}

// Names returns every recognized business event name, sorted.
func Names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Known reports whether name is a recognized business event.
func Known(name string) bool {
	_, ok := registry[name]
	return ok
}

// Decode turns a loosely typed payload into its Event variant. Missing or
// mistyped fields never fail decoding; only an unknown name does.
//
// Recognized shared keys: eventId, sourceUrl, source and userData (email,
// phone, name, firstName, lastName, city, state, country, zip, fbc, fbp,
// external_id, fb_login_id). snake_case spellings are accepted too.
func Decode(name string, data map[string]any, source string) (Event, error) {
	dec, ok := registry[strings.TrimSpace(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidEventType, name)
	}
	f := fields(data)
	return dec(f, f.common(source)), nil
}

// fields is a tolerant view over a decoded JSON object.
type fields map[string]any

func (f fields) str(keys ...string) string {
	for _, k := range keys {
		v, ok := f[k]
		if !ok || v == nil {
			continue
		}
		var s string
		switch x := v.(type) {
		case string:
			s = x
		case float64:
			s = strconv.FormatFloat(x, 'f', -1, 64)
		case json.Number:
			s = x.String()
		case bool:
			s = strconv.FormatBool(x)
		case int:
			s = strconv.Itoa(x)
		case int64:
			s = strconv.FormatInt(x, 10)
		}
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}

func (f fields) num(keys ...string) float64 {
	for _, k := range keys {
		switch x := f[k].(type) {
		case float64:
			return x
		case int:
			return float64(x)
		case int64:
			return float64(x)
		case json.Number:
			if n, err := x.Float64(); err == nil {
				return n
			}
		case string:
			if n, err := strconv.ParseFloat(strings.TrimSpace(x), 64); err == nil {
				return n
			}
		}
	}
	return 0
}

func (f fields) sub(keys ...string) fields {
	for _, k := range keys {
		if m, ok := f[k].(map[string]any); ok {
			return fields(m)
		}
	}
	return fields{}
}

func (f fields) country() string {
	return f.str("country", "destination", "studyDestination", "study_destination")
}

func (f fields) university() string {
	return f.str("university", "universityName", "university_name")
}

func (f fields) document() string {
	return f.str("documentName", "document_name", "document", "brochure")
}

func (f fields) common(source string) Common {
	u := f.sub("userData", "user_data")
	return Common{
		EventID:   f.str("eventId", "event_id"),
		Source:    firstNonEmpty(strings.TrimSpace(source), f.str("source")),
		SourceURL: f.str("sourceUrl", "source_url", "event_source_url"),
		User: pii.UserInput{
			Email:     u.str("email", "em"),
			Phone:     u.str("phone", "ph"),
			Name:      u.str("name", "fullName", "full_name"),
			FirstName: u.str("firstName", "first_name", "fn"),
			LastName:  u.str("lastName", "last_name", "ln"),
			City:      u.str("city", "ct"),
			State:     u.str("state", "st"),
			Country:   u.str("country"),
			Zip:       u.str("zip", "zipCode", "postalCode", "postal_code", "zp"),
		},
		Attribution: models.AttributionContext{
			ClickID:    u.str("fbc", "clickId"),
			BrowserID:  u.str("fbp", "browserId"),
			ExternalID: u.str("external_id", "externalId"),
			LoginID:    u.str("fb_login_id", "fbLoginId"),
		},
	}
}
