// Package features computes the fixed, ordered set of ternary phishing
// heuristics for one URL.
package features

import "fmt"

// Score is a ternary feature value.
type Score int8

const (
	Benign     Score = -1
	Unknown    Score = 0
	Suspicious Score = 1
)

func (s Score) String() string {
	switch s {
	case Benign:
		return "benign"
	case Unknown:
		return "unknown"
	case Suspicious:
		return "suspicious"
	default:
		return fmt.Sprintf("Score(%d)", int8(s))
	}
}

// Valid reports whether s is one of the three defined values.
func (s Score) Valid() bool {
	return s >= Benign && s <= Suspicious
}

// Count is the length of every feature vector.
const Count = 29

// Vector positions, in canonical order.
const (
	HavingIPAddress = iota
	URLLength
	ShorteningService
	HavingAtSymbol
	DoubleSlashRedirecting
	PrefixSuffix
	HavingSubDomain
	SSLFinalState
	DomainRegistrationLength
	Favicon
	Port
	HTTPSToken
	RequestURL
	URLOfAnchor
	LinksInTags
	SFH
	SubmittingToEmail
	AbnormalURL
	Redirect
	OnMouseover
	RightClick
	PopUpWindow
	Iframe
	AgeOfDomain
	DNSRecord
	WebTraffic
	PageRank
	GoogleIndex
	LinksPointingToPage
)

// Names lists the feature names in vector order. The spellings match the
// public phishing-websites dataset the models are trained on.
var Names = [Count]string{
	"having_IP_Address",
	"URL_Length",
	"Shortining_Service",
	"having_At_Symbol",
	"double_slash_redirecting",
	"Prefix_Suffix",
	"having_Sub_Domain",
	"SSLfinal_State",
	"Domain_registeration_length",
	"Favicon",
	"port",
	"HTTPS_token",
	"Request_URL",
	"URL_of_Anchor",
	"Links_in_tags",
	"SFH",
	"Submitting_to_email",
	"Abnormal_URL",
	"Redirect",
	"on_mouseover",
	"RightClick",
	"popUpWidnow",
	"Iframe",
	"age_of_domain",
	"DNSRecord",
	"web_traffic",
	"Page_Rank",
	"Google_Index",
	"Links_pointing_to_page",
}

// ReportName is the model input that follows the 29 features.
const ReportName = "Statistical_report"

// Vector holds one score per feature in canonical order.
type Vector [Count]Score

// IndexOf returns the position of the named feature, or -1.
func IndexOf(name string) int {
	for i, n := range Names {
		if n == name {
			return i
		}
	}
	return -1
}

// Floats converts the vector to classifier input values.
func (v Vector) Floats() []float64 {
	out := make([]float64, Count)
	for i, s := range v {
		out[i] = float64(s)
	}
	return out
}

// Ints returns the raw values, convenient for JSON and CSV.
func (v Vector) Ints() []int {
	out := make([]int, Count)
	for i, s := range v {
		out[i] = int(s)
	}
	return out
}

// Named maps feature names to values.
func (v Vector) Named() map[string]int {
	out := make(map[string]int, Count)
	for i, s := range v {
		out[Names[i]] = int(s)
	}
	return out
}
