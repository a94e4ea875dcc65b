package publish

import (
	"sort"
	"strconv"
	"strings"

	"github.com/cmlabs-hris/timeledger-backend-go/internal/domain/compliance"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/pkg/digest"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/pkg/timerange"
)

const fingerprintDomain = "timeledger/publish-fingerprint/v1"

// Canonical renders the fingerprint input as sorted key=value lines. Every
// rule type and severity is always present so an absent count and a zero
// count cannot differ.
func Canonical(summary compliance.Summary, dates timerange.Dates, version int64) string {
	kv := map[string]string{
		"range.start":      dates.From,
		"range.end":        dates.To,
		"schedule_version": strconv.FormatInt(version, 10),
		"total":            strconv.Itoa(summary.Total),
		"waived":           strconv.Itoa(summary.Waived),
	}
	for _, t := range compliance.RuleTypeValues {
		kv["type."+t] = strconv.Itoa(summary.CountOf(compliance.RuleType(t)))
	}
	for _, s := range compliance.SeverityValues {
		kv["severity."+s] = strconv.Itoa(summary.BySeverity[compliance.Severity(s)])
	}

	keys := make([]string, 0, len(kv))
	for k := range kv {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(kv[k])
		b.WriteByte('\n')
	}
	return b.String()
}

// Fingerprint is the digest of Canonical(summary, dates, version).
func Fingerprint(summary compliance.Summary, dates timerange.Dates, version int64) string {
	return digest.New(fingerprintDomain).String(Canonical(summary, dates, version)).Hex()
}
