package sqlinline

const QInsertJob = `--sql a5d7b77d-17ce-4699-9c65-c2e74bf5efc7
insert into generation_jobs (
  id,
  brief,
  business_context,
  total_sections,
  completed_sections,
  status,
  current_pass,
  current_section_key,
  passes_status,
  draft_content,
  error_message,
  created_at,
  updated_at
) values (
  $1::uuid,
  $2::jsonb,
  $3::jsonb,
  $4::int,
  0,
  $5::text,
  $6::int,
  '',
  $7::jsonb,
  '',
  '',
  now(),
  now()
)
returning created_at, updated_at;
`

const QSelectJob = `--sql 8ff5311d-3383-4b86-8e77-09b427844909
select
  id::text,
  brief,
  business_context,
  total_sections,
  completed_sections,
  status,
  current_pass,
  current_section_key,
  passes_status,
  draft_content,
  final_audit_score,
  audit_details,
  error_message,
  created_at,
  updated_at
from generation_jobs
where id = $1::uuid
limit 1;
`

// QUpdateJob applies a partial patch; null parameters leave the column untouched.
// completed_sections is clamped to total_sections once a total is known.
const QUpdateJob = `--sql fab09695-d72e-4414-a130-a91d3c61159b
update generation_jobs
set
  total_sections = coalesce($2::int, total_sections),
  completed_sections = case
    when coalesce($2::int, total_sections) > 0
      then least(coalesce($3::int, completed_sections), coalesce($2::int, total_sections))
    else coalesce($3::int, completed_sections)
  end,
  status = coalesce($4::text, status),
  current_pass = coalesce($5::int, current_pass),
  current_section_key = coalesce($6::text, current_section_key),
  passes_status = passes_status || coalesce($7::jsonb, '{}'::jsonb),
  draft_content = coalesce($8::text, draft_content),
  final_audit_score = coalesce($9::int, final_audit_score),
  audit_details = coalesce($10::jsonb, audit_details),
  error_message = coalesce($11::text, error_message),
  updated_at = now()
where id = $1::uuid;
`

const QSelectJobStatus = `--sql 0823e856-2fa4-437f-b1a2-6c1c9c1bc85c
select status
from generation_jobs
where id = $1::uuid
limit 1;
`
