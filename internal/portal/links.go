package portal

import (
	"net/url"
	"strings"
)

// TakeURL builds the standalone exam page address. Name and email are
// optional prefills and are left out when empty.
func TakeURL(publicURL, examID, name, email string) string {
	var b strings.Builder
	b.WriteString(strings.TrimSuffix(publicURL, "/"))
	b.WriteString("/take?examId=")
	b.WriteString(url.QueryEscape(examID))
	if name = strings.TrimSpace(name); name != "" {
		b.WriteString("&name=")
		b.WriteString(url.QueryEscape(name))
	}
	if email = strings.TrimSpace(email); email != "" {
		b.WriteString("&email=")
		b.WriteString(url.QueryEscape(email))
	}
	return b.String()
}

type TakeParams struct {
	ExamID string
	Name   string
	Email  string
}

func ParseTakeParams(q url.Values) TakeParams {
	return TakeParams{
		ExamID: strings.TrimSpace(q.Get("examId")),
		Name:   strings.TrimSpace(q.Get("name")),
		Email:  strings.TrimSpace(q.Get("email")),
	}
}
