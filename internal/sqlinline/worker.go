package sqlinline

// QWorkerClaimJob moves the oldest pending job to in_progress and returns its id.
const QWorkerClaimJob = `--sql 4f55a9b7-4e9f-4e45-a3b3-5a532d21d9db
with next_job as (
    select id
    from generation_jobs
    where status = 'pending'
    order by created_at asc
    for update skip locked
    limit 1
),
updated as (
    update generation_jobs
    set status = 'in_progress', updated_at = now()
    where id in (select id from next_job)
    returning id
)
select id::text from updated;
`

// QWorkerRequeueStale returns in_progress jobs left behind by a crashed worker to pending.
const QWorkerRequeueStale = `--sql d7092473-4bfb-4d5d-b5ac-fb6b87c8ee74
update generation_jobs
set status = 'pending', updated_at = now()
where status = 'in_progress'
  and updated_at < now() - make_interval(secs => $1::int);
`
