package audit

import (
	"fmt"
	"strings"

	"articleforge/internal/domain"
	"articleforge/internal/markdown"
)

type formatExpectation struct {
	heading string
	code    domain.FormatCode
	section *draftSection
}

func (a *article) formatExpectations() []formatExpectation {
	var out []formatExpectation
	if a.in.Template != nil {
		for _, ts := range a.in.Template.Sections {
			if ts.FormatCode == "" || ts.FormatCode == domain.FormatProse {
				continue
			}
			if s := a.findTemplateSection(ts); s != nil {
				out = append(out, formatExpectation{heading: s.Heading, code: ts.FormatCode, section: s})
			}
		}
		return out
	}
	for i := range a.sections {
		s := &a.sections[i]
		if s.def == nil || s.def.FormatCode == "" || s.def.FormatCode == domain.FormatProse {
			continue
		}
		out = append(out, formatExpectation{heading: s.Heading, code: s.def.FormatCode, section: s})
	}
	return out
}

func (a *article) satisfiesFormat(s *draftSection, code domain.FormatCode) bool {
	has := func(kind markdown.BlockKind) bool {
		for _, b := range s.Blocks {
			if b.Kind == kind {
				return true
			}
		}
		return false
	}
	switch code {
	case domain.FormatList:
		return has(markdown.BlockList) || has(markdown.BlockOrderedList)
	case domain.FormatOrderedList:
		return has(markdown.BlockOrderedList)
	case domain.FormatTable:
		return has(markdown.BlockTable)
	case domain.FormatDefinition:
		first := markdown.FirstSentence(s.FirstParagraph())
		return containsAnyPhrase(first, a.pat.DefinitionVerbs)
	}
	return true
}

func checkFormatCompliance(a *article) domain.AuditRuleResult {
	expectations := a.formatExpectations()
	if len(expectations) == 0 {
		return pass(RuleFormatCompliance, "No structured format codes to check.")
	}
	var mismatched []string
	first := ""
	for _, exp := range expectations {
		if !a.satisfiesFormat(exp.section, exp.code) {
			mismatched = append(mismatched, fmt.Sprintf("%s (%s)", exp.heading, exp.code))
			if first == "" {
				first = a.headingLine(exp.section.Heading)
			}
		}
	}
	score := pct(1 - ratio(len(mismatched), len(expectations)))
	if len(mismatched) > 0 {
		return scored(fail(RuleFormatCompliance,
			fmt.Sprintf("%d of %d sections do not use their required format: %s.", len(mismatched), len(expectations), strings.Join(mismatched, "; ")),
			first,
			"Restructure each listed section into its required format."), score)
	}
	return scored(pass(RuleFormatCompliance, fmt.Sprintf("All %d sections match their format code.", len(expectations))), score)
}

// findTemplateSection locates the draft section serving ts: by outline key,
// then heading overlap, then intro or conclusion role.
func (a *article) findTemplateSection(ts TemplateSection) *draftSection {
	for i := range a.sections {
		s := &a.sections[i]
		if s.def != nil && ts.Key != "" && s.def.Key == ts.Key {
			return s
		}
	}
	want := normalize(ts.Heading)
	if want != "" {
		for i := range a.sections {
			s := &a.sections[i]
			h := normalize(s.Heading)
			if h != "" && (h == want || strings.Contains(h, want) || strings.Contains(want, h)) {
				return s
			}
		}
	}
	role := domain.SectionDefinition{Key: ts.Key, Heading: ts.Heading}.Normalized(0)
	for i := range a.sections {
		s := &a.sections[i]
		if (role.IsIntro && s.intro) || (role.IsConclusion && s.conclusion) {
			return s
		}
	}
	return nil
}

func checkRequiredSections(a *article) domain.AuditRuleResult {
	if a.in.Template == nil {
		return pass(RuleRequiredSections, "No template supplied.")
	}
	required, present := 0, 0
	var missing []string
	for _, ts := range a.in.Template.Sections {
		if !ts.Required {
			continue
		}
		required++
		if a.findTemplateSection(ts) != nil {
			present++
			continue
		}
		missing = append(missing, ts.Heading)
	}
	if required == 0 {
		return pass(RuleRequiredSections, fmt.Sprintf("Template %q has no required sections.", a.in.Template.Name))
	}
	details := fmt.Sprintf("%d of %d required sections of template %q are present.", present, required, a.in.Template.Name)
	if len(missing) > 0 {
		return scored(fail(RuleRequiredSections, details, strings.Join(missing, MissingSeparator),
			"Add the missing sections required by the template."), pct(ratio(present, required)))
	}
	return scored(pass(RuleRequiredSections, details), 100)
}

func (a *article) zoneOf(s *draftSection) domain.ContentZone {
	if s.def != nil && s.def.ContentZone != "" {
		return s.def.ContentZone
	}
	if a.in.Template != nil {
		for _, ts := range a.in.Template.Sections {
			if a.findTemplateSection(ts) == s {
				return ts.Zone
			}
		}
	}
	if a.isRelatedZone(s) {
		return domain.ZoneSupplementary
	}
	return domain.ZoneMain
}

func checkZoneBalance(a *article) domain.AuditRuleResult {
	main, supplementary := 0, 0
	for i := range a.sections {
		s := &a.sections[i]
		if s.Level != 2 {
			continue
		}
		if a.zoneOf(s) == domain.ZoneSupplementary {
			supplementary++
		} else {
			main++
		}
	}
	details := fmt.Sprintf("%d main and %d supplementary sections.", main, supplementary)
	if main < a.th.MinMainSections {
		return fail(RuleZoneBalance, details+fmt.Sprintf(" At least %d main sections are needed.", a.th.MinMainSections), "",
			"Expand the core content with more main sections.")
	}
	if supplementary > main {
		return fail(RuleZoneBalance, details+" Supplementary content outweighs the main content.", "",
			"Trim supplementary sections or move their substance into the main content.")
	}
	return pass(RuleZoneBalance, details)
}
