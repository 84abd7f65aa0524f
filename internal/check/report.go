package check

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"strings"
)

// statusGlyphs for the text report.
var statusGlyphs = map[Status]string{
	StatusPass:      "ok",
	StatusWarn:      "warn",
	StatusFail:      "FAIL",
	StatusUnchecked: "unchecked",
}

// RenderText renders the human-readable report.
func RenderText(v *Verdict) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Consistency verdict: %s\n", v.Status)
	if v.Summary != "" {
		fmt.Fprintf(&sb, "%s\n", v.Summary)
	}
	for _, c := range v.Checks {
		fmt.Fprintf(&sb, "\n  [%s] %s: %s\n", statusGlyphs[c.Status], c.Name, c.Message)
		for _, f := range c.AffectedFiles {
			fmt.Fprintf(&sb, "      - %s\n", f)
		}
		if c.Fix != "" && c.Status != StatusPass {
			fmt.Fprintf(&sb, "      fix: %s\n", c.Fix)
		}
	}
	return sb.String()
}

// RenderJSON renders the machine-readable report.
func RenderJSON(v *Verdict) ([]byte, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("check: render json: %w", err)
	}
	return append(out, '\n'), nil
}

// --- JUnit ---

type junitTestsuite struct {
	XMLName  xml.Name        `xml:"testsuite"`
	Name     string          `xml:"name,attr"`
	Tests    int             `xml:"tests,attr"`
	Failures int             `xml:"failures,attr"`
	Time     string          `xml:"timestamp,attr"`
	Cases    []junitTestcase `xml:"testcase"`
}

type junitTestcase struct {
	Name      string        `xml:"name,attr"`
	Classname string        `xml:"classname,attr"`
	Failure   *junitFailure `xml:"failure,omitempty"`
	SystemOut string        `xml:"system-out,omitempty"`
}

type junitFailure struct {
	Message string `xml:"message,attr"`
	Body    string `xml:",chardata"`
}

// RenderJUnit renders the verdict as JUnit XML: one testcase per check,
// a <failure> element for fails, and warn details in <system-out>.
func RenderJUnit(v *Verdict) ([]byte, error) {
	suite := junitTestsuite{
		Name:  "vigil-consistency",
		Tests: len(v.Checks),
		Time:  v.GeneratedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	for _, c := range v.Checks {
		tc := junitTestcase{Name: c.Name, Classname: "vigil"}
		switch c.Status {
		case StatusFail:
			suite.Failures++
			tc.Failure = &junitFailure{
				Message: c.Message,
				Body:    affectedBody(c),
			}
		case StatusWarn:
			tc.SystemOut = c.Message + affectedBody(c)
		}
		suite.Cases = append(suite.Cases, tc)
	}

	out, err := xml.MarshalIndent(suite, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("check: render junit: %w", err)
	}
	return append([]byte(xml.Header), append(out, '\n')...), nil
}

func affectedBody(c CheckResult) string {
	if len(c.AffectedFiles) == 0 {
		return ""
	}
	return "\naffected: " + strings.Join(c.AffectedFiles, ", ")
}
