package sqlinline

const QSelectSections = `--sql f8eb43a0-407f-4ab1-8a14-143cd5621e90
select
  job_id::text,
  section_key,
  section_heading,
  section_order,
  section_level,
  pass_contents,
  current_content,
  current_pass,
  status,
  updated_at
from job_sections
where job_id = $1::uuid
order by section_order asc, section_key asc;
`

// QUpsertSection is idempotent on (job_id, section_key).
const QUpsertSection = `--sql 6a501c6d-5e7d-4e80-a5a5-7a4e2f701dfb
insert into job_sections (
  job_id,
  section_key,
  section_heading,
  section_order,
  section_level,
  pass_contents,
  current_content,
  current_pass,
  status,
  updated_at
) values (
  $1::uuid,
  $2::text,
  $3::text,
  $4::int,
  $5::int,
  $6::jsonb,
  $7::text,
  $8::int,
  $9::text,
  now()
)
on conflict (job_id, section_key) do update set
  section_heading = excluded.section_heading,
  section_order = excluded.section_order,
  section_level = excluded.section_level,
  pass_contents = job_sections.pass_contents || excluded.pass_contents,
  current_content = excluded.current_content,
  current_pass = excluded.current_pass,
  status = excluded.status,
  updated_at = now();
`

const QCountCompletedSections = `--sql a9cda9e4-1af0-4604-9150-80331293aeb3
select count(*)::int
from job_sections
where job_id = $1::uuid
  and status = 'completed';
`
