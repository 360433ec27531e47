package domain

import (
	"strings"
	"time"
)

// JobStatus enumerates job lifecycle states.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusInProgress JobStatus = "in_progress"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusAborted    JobStatus = "aborted"
	JobStatusFailed     JobStatus = "failed"
)

// PassStatus tracks one pass inside passes_status.
type PassStatus string

const (
	PassPending    PassStatus = "pending"
	PassInProgress PassStatus = "in_progress"
	PassCompleted  PassStatus = "completed"
)

// PassKey identifies a pipeline pass in passes_status.
type PassKey string

const (
	PassDraft          PassKey = "pass_1_draft"
	PassHeaders        PassKey = "pass_2_headers"
	PassLists          PassKey = "pass_3_lists"
	PassVisuals        PassKey = "pass_4_visuals"
	PassMicroSemantics PassKey = "pass_5_microsemantics"
	PassDiscourse      PassKey = "pass_6_discourse"
	PassIntro          PassKey = "pass_7_intro"
	PassAudit          PassKey = "pass_8_audit"
)

// FinalPass is the highest pass number.
const FinalPass = 8

// PassOrder lists pass keys by pass number (index 0 is pass 1).
var PassOrder = []PassKey{
	PassDraft,
	PassHeaders,
	PassLists,
	PassVisuals,
	PassMicroSemantics,
	PassDiscourse,
	PassIntro,
	PassAudit,
}

// PassKeyFor returns the key of pass n, or "" when n is out of range.
func PassKeyFor(n int) PassKey {
	if n < 1 || n > len(PassOrder) {
		return ""
	}
	return PassOrder[n-1]
}

// GenerationJob encapsulates the lifecycle of one article generation.
type GenerationJob struct {
	ID                string                 `json:"id"`
	Brief             ContentBrief           `json:"brief"`
	BusinessContext   BusinessContext        `json:"business_context"`
	TotalSections     int                    `json:"total_sections"`
	CompletedSections int                    `json:"completed_sections"`
	Status            JobStatus              `json:"status"`
	CurrentPass       int                    `json:"current_pass"`
	CurrentSectionKey string                 `json:"current_section_key,omitempty"`
	PassesStatus      map[PassKey]PassStatus `json:"passes_status"`
	DraftContent      string                 `json:"draft_content,omitempty"`
	FinalAuditScore   *int                   `json:"final_audit_score,omitempty"`
	AuditDetails      *AuditReport           `json:"audit_details,omitempty"`
	ErrorMessage      string                 `json:"error_message,omitempty"`
	CreatedAt         time.Time              `json:"created_at"`
	UpdatedAt         time.Time              `json:"updated_at"`
}

// NewPassesStatus returns a passes_status map with every pass pending.
func NewPassesStatus() map[PassKey]PassStatus {
	out := make(map[PassKey]PassStatus, len(PassOrder))
	for _, k := range PassOrder {
		out[k] = PassPending
	}
	return out
}

// ResumePass returns the first pass that is not completed, or FinalPass+1 when all are.
func (j *GenerationJob) ResumePass() int {
	for i, key := range PassOrder {
		if j.PassesStatus[key] != PassCompleted {
			return i + 1
		}
	}
	return FinalPass + 1
}

// JobPatch updates selected job fields. Nil fields are left untouched.
type JobPatch struct {
	TotalSections     *int
	CompletedSections *int
	Status            *JobStatus
	CurrentPass       *int
	CurrentSectionKey *string
	PassStatus        map[PassKey]PassStatus
	DraftContent      *string
	FinalAuditScore   *int
	AuditDetails      *AuditReport
	ErrorMessage      *string
}

// Apply merges the patch into job. Shared by the store implementations.
func (p JobPatch) Apply(job *GenerationJob) {
	if p.TotalSections != nil {
		job.TotalSections = *p.TotalSections
	}
	if p.CompletedSections != nil {
		job.CompletedSections = *p.CompletedSections
	}
	if job.CompletedSections > job.TotalSections && job.TotalSections > 0 {
		job.CompletedSections = job.TotalSections
	}
	if p.Status != nil {
		job.Status = *p.Status
	}
	if p.CurrentPass != nil {
		job.CurrentPass = *p.CurrentPass
	}
	if p.CurrentSectionKey != nil {
		job.CurrentSectionKey = *p.CurrentSectionKey
	}
	if len(p.PassStatus) > 0 {
		if job.PassesStatus == nil {
			job.PassesStatus = NewPassesStatus()
		}
		for k, v := range p.PassStatus {
			job.PassesStatus[k] = v
		}
	}
	if p.DraftContent != nil {
		job.DraftContent = *p.DraftContent
	}
	if p.FinalAuditScore != nil {
		score := *p.FinalAuditScore
		job.FinalAuditScore = &score
	}
	if p.AuditDetails != nil {
		job.AuditDetails = p.AuditDetails
	}
	if p.ErrorMessage != nil {
		job.ErrorMessage = *p.ErrorMessage
	}
}

// SectionStatus is the completion state of a section.
type SectionStatus string

const (
	SectionPending   SectionStatus = "pending"
	SectionCompleted SectionStatus = "completed"
)

// Section holds one outline section's content across passes.
type Section struct {
	JobID          string         `json:"job_id"`
	Key            string         `json:"section_key"`
	Heading        string         `json:"section_heading"`
	Order          int            `json:"section_order"`
	Level          int            `json:"section_level"`
	PassContents   map[int]string `json:"pass_contents"`
	CurrentContent string         `json:"current_content"`
	CurrentPass    int            `json:"current_pass"`
	Status         SectionStatus  `json:"status"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// CompletedFor reports whether the section already carries accepted content for pass n.
func (s Section) CompletedFor(n int) bool {
	return s.Status == SectionCompleted && strings.TrimSpace(s.PassContents[n]) != ""
}

// WithPassContent returns a copy carrying content as the latest accepted text for pass n.
func (s Section) WithPassContent(n int, content string) Section {
	contents := make(map[int]string, len(s.PassContents)+1)
	for k, v := range s.PassContents {
		contents[k] = v
	}
	contents[n] = content
	s.PassContents = contents
	s.CurrentContent = content
	if n > s.CurrentPass {
		s.CurrentPass = n
	}
	s.Status = SectionCompleted
	return s
}
