// Package schema validates raw provider output against the structured
// summary shapes.
package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
	apperrors "reel-digest/internal/app/errors"
	"reel-digest/internal/app/model"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// technologyLabels are the line prefixes of a technology summary, in order.
var technologyLabels = []string{"Topic", "Tech", "Insight", "Takeaway"}

var sentenceEnd = regexp.MustCompile(`[.!?]+(\s+|$)`)

// Validate parses raw into a StructuredSummary for category. The returned
// error is a SchemaViolation naming the first broken constraint. Checks run
// in order: shape and type tag, required fields, cross-field consistency,
// then defaults for optional company fields.
func Validate(raw string, category model.Category) (*model.StructuredSummary, error) {
	fields, err := decodeObject(raw)
	if err != nil {
		return nil, err
	}

	want := category.SummaryType()
	var tag string
	if err := decodeField(fields, "type", &tag, true); err != nil {
		return nil, err
	}
	if model.SummaryType(tag) != want {
		return nil, apperrors.InvalidField("type", fmt.Sprintf("expected %q, got %q", want, tag))
	}

	var summary *model.StructuredSummary
	if category == model.CategoryCompany {
		summary, err = companyVariant(fields)
	} else {
		summary, err = textVariant(fields, category)
	}
	if err != nil {
		return nil, err
	}
	summary.Type = want
	summary.Normalize()
	return summary, nil
}

// decodeObject requires a single JSON object, tolerating a Markdown code
// fence around it.
func decodeObject(raw string) (map[string]json.RawMessage, error) {
	text := stripFence(raw)
	if text == "" {
		return nil, apperrors.SchemaViolation("$", "output is empty")
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &fields); err != nil || fields == nil {
		return nil, apperrors.SchemaViolation("$", "output is not a JSON object")
	}
	return fields, nil
}

func stripFence(raw string) string {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[i+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(text), "```"))
}

// decodeField unmarshals fields[name] into dst. Null counts as absent.
func decodeField(fields map[string]json.RawMessage, name string, dst interface{}, required bool) error {
	data, ok := fields[name]
	if !ok || string(data) == "null" {
		if required {
			return apperrors.RequiredField(name)
		}
		return nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return apperrors.InvalidField(name, "has the wrong type")
	}
	return nil
}

func decodeTags(fields map[string]json.RawMessage, required bool) ([]string, error) {
	var raw []interface{}
	if err := decodeField(fields, "tags", &raw, required); err != nil {
		return nil, err
	}
	tags := make([]string, 0, len(raw))
	for i, v := range raw {
		s, ok := v.(string)
		if !ok {
			return nil, apperrors.InvalidField(fmt.Sprintf("tags[%d]", i), "must be a string")
		}
		tags = append(tags, s)
	}
	return lo.Uniq(tags), nil
}

func companyVariant(fields map[string]json.RawMessage) (*model.StructuredSummary, error) {
	var entries []model.CompanySummary
	if err := decodeField(fields, "summaries", &entries, true); err != nil {
		return nil, err
	}
	var rawCompanies []interface{}
	if err := decodeField(fields, "companies", &rawCompanies, true); err != nil {
		return nil, err
	}
	tags, err := decodeTags(fields, true)
	if err != nil {
		return nil, err
	}

	for i := range entries {
		if err := requireCompanyFields(i, &entries[i]); err != nil {
			return nil, err
		}
	}

	companies := make([]string, 0, len(rawCompanies))
	for i, v := range rawCompanies {
		s, ok := v.(string)
		if !ok {
			return nil, apperrors.InvalidField(fmt.Sprintf("companies[%d]", i), "must be a string")
		}
		companies = append(companies, strings.TrimSpace(s))
	}

	if err := crossCheckCompanies(entries, companies); err != nil {
		return nil, err
	}

	for i := range entries {
		fillDefaults(&entries[i])
	}

	return &model.StructuredSummary{
		Tags:      tags,
		Summaries: entries,
		Companies: lo.Uniq(companies),
	}, nil
}

func requireCompanyFields(i int, entry *model.CompanySummary) error {
	entry.CompanyName = strings.TrimSpace(entry.CompanyName)
	entry.Notes = strings.TrimSpace(entry.Notes)
	err := validate.Struct(entry)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return apperrors.RequiredField(fmt.Sprintf("summaries[%d].%s", i, jsonName(verrs[0].Field())))
	}
	return apperrors.InvalidField(fmt.Sprintf("summaries[%d]", i), err.Error())
}

func jsonName(field string) string {
	switch field {
	case "CompanyName":
		return "company_name"
	case "Notes":
		return "notes"
	}
	return strings.ToLower(field)
}

// crossCheckCompanies requires companies to be exactly the set of
// summaries[].company_name, compared case-sensitively. Both sides are
// already trimmed. Each company may have only one entry.
func crossCheckCompanies(entries []model.CompanySummary, companies []string) error {
	names := lo.Map(entries, func(e model.CompanySummary, _ int) string { return e.CompanyName })
	if dups := lo.FindDuplicates(names); len(dups) > 0 {
		return apperrors.InvalidField("summaries", fmt.Sprintf("%q has more than one entry", dups[0]))
	}

	if missing, _ := lo.Difference(names, companies); len(missing) > 0 {
		return apperrors.InvalidField("companies", fmt.Sprintf("missing %q listed in summaries", missing[0]))
	}
	if _, extra := lo.Difference(names, companies); len(extra) > 0 {
		return apperrors.InvalidField("companies", fmt.Sprintf("%q has no entry in summaries", extra[0]))
	}
	return nil
}

func fillDefaults(entry *model.CompanySummary) {
	for _, f := range []*string{&entry.Location, &entry.Industry, &entry.Funding} {
		if strings.TrimSpace(*f) == "" {
			*f = model.NotSpecified
		}
	}
}

func textVariant(fields map[string]json.RawMessage, category model.Category) (*model.StructuredSummary, error) {
	var title, summary string
	if err := decodeField(fields, "title", &title, true); err != nil {
		return nil, err
	}
	if strings.TrimSpace(title) == "" {
		return nil, apperrors.RequiredField("title")
	}
	if err := decodeField(fields, "summary", &summary, true); err != nil {
		return nil, err
	}
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return nil, apperrors.RequiredField("summary")
	}
	tags, err := decodeTags(fields, false)
	if err != nil {
		return nil, err
	}
	for _, name := range []string{"summaries", "companies"} {
		var items []json.RawMessage
		if err := decodeField(fields, name, &items, false); err != nil {
			return nil, err
		}
		if len(items) > 0 {
			return nil, apperrors.InvalidField(name, "must be empty for "+string(category))
		}
	}

	if category == model.CategoryTechnology {
		err = checkTechnologySummary(summary)
	} else {
		err = checkSentences(summary, 2, 4)
	}
	if err != nil {
		return nil, err
	}

	return &model.StructuredSummary{
		Title:   strings.TrimSpace(title),
		Summary: summary,
		Tags:    tags,
	}, nil
}

// checkTechnologySummary requires exactly four lines labelled Topic, Tech,
// Insight and Takeaway in that order, each with content.
func checkTechnologySummary(summary string) error {
	lines := strings.Split(summary, "\n")
	if len(lines) != len(technologyLabels) {
		return apperrors.InvalidField("summary", fmt.Sprintf("expected %d lines, got %d", len(technologyLabels), len(lines)))
	}
	for i, label := range technologyLabels {
		value, ok := strings.CutPrefix(strings.TrimSpace(lines[i]), label+":")
		if !ok || strings.TrimSpace(value) == "" {
			return apperrors.InvalidField("summary", fmt.Sprintf("line %d must start with %q", i+1, label+": "))
		}
	}
	return nil
}

func checkSentences(summary string, min, max int) error {
	n := countSentences(summary)
	if n < min || n > max {
		return apperrors.InvalidField("summary", fmt.Sprintf("expected %d to %d sentences, got %d", min, max, n))
	}
	return nil
}

func countSentences(text string) int {
	parts := sentenceEnd.Split(strings.TrimSpace(text), -1)
	return len(lo.Filter(parts, func(p string, _ int) bool { return strings.TrimSpace(p) != "" }))
}
