package sqlinline

// Lead rows mirror generation jobs. Upserts never move a finished row back to
// building, never drop a stored artifact and never blank a filled field, so
// writes may arrive in any order.

const QCreateLeads = `--sql bbec21c2-a57c-47be-8e9c-18d1bd5f8088
create table if not exists leads (
    job_id      text primary key,
    status      text not null default 'building',
    name        text not null default '',
    email       text not null default '',
    business    text not null default '',
    category    text not null default '',
    style       text not null default '',
    location    text not null default '',
    offerings   text not null default '',
    audience    text not null default '',
    notes       text not null default '',
    artifact    text,
    created_at  timestamptz not null default now(),
    updated_at  timestamptz not null default now()
);
`

const QUpsertLead = `--sql 671b386f-7c2a-41dc-912e-265f93acde0b
insert into leads (job_id, status, name, email, business, category, style, location, offerings, audience, notes, artifact, created_at, updated_at)
values ($1::text, $2::text, $3::text, $4::text, $5::text, $6::text, $7::text, $8::text, $9::text, $10::text, $11::text, $12::text, now(), now())
on conflict (job_id) do update set
    status = case when leads.status = 'building' then excluded.status else leads.status end,
    name = coalesce(nullif(excluded.name, ''), leads.name),
    email = coalesce(nullif(excluded.email, ''), leads.email),
    business = coalesce(nullif(excluded.business, ''), leads.business),
    category = coalesce(nullif(excluded.category, ''), leads.category),
    style = coalesce(nullif(excluded.style, ''), leads.style),
    location = coalesce(nullif(excluded.location, ''), leads.location),
    offerings = coalesce(nullif(excluded.offerings, ''), leads.offerings),
    audience = coalesce(nullif(excluded.audience, ''), leads.audience),
    notes = coalesce(nullif(excluded.notes, ''), leads.notes),
    artifact = coalesce(excluded.artifact, leads.artifact),
    updated_at = now();
`

const QSelectLead = `--sql d54ee2f3-8054-4ae4-a70e-28cb7c096847
select job_id, status, name, email, business, category, style, location, offerings, audience, notes, artifact
from leads
where job_id = $1::text
limit 1;
`

const QCreateLeadsMySQL = `--sql 172f89bf-e406-4b2b-8008-88cdb50027b4
CREATE TABLE IF NOT EXISTS leads (
    job_id      VARCHAR(64) NOT NULL PRIMARY KEY,
    status      VARCHAR(16) NOT NULL DEFAULT 'building',
    name        VARCHAR(255) NOT NULL DEFAULT '',
    email       VARCHAR(255) NOT NULL DEFAULT '',
    business    VARCHAR(255) NOT NULL DEFAULT '',
    category    VARCHAR(64) NOT NULL DEFAULT '',
    style       VARCHAR(64) NOT NULL DEFAULT '',
    location    TEXT NOT NULL,
    offerings   TEXT NOT NULL,
    audience    TEXT NOT NULL,
    notes       TEXT NOT NULL,
    artifact    LONGTEXT NULL,
    created_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
`

const QUpsertLeadMySQL = `--sql aa6e2b52-d195-4584-943b-85fbff2ef89a
INSERT INTO leads (job_id, status, name, email, business, category, style, location, offerings, audience, notes, artifact)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
    name = COALESCE(NULLIF(VALUES(name), ''), name),
    email = COALESCE(NULLIF(VALUES(email), ''), email),
    business = COALESCE(NULLIF(VALUES(business), ''), business),
    category = COALESCE(NULLIF(VALUES(category), ''), category),
    style = COALESCE(NULLIF(VALUES(style), ''), style),
    location = COALESCE(NULLIF(VALUES(location), ''), location),
    offerings = COALESCE(NULLIF(VALUES(offerings), ''), offerings),
    audience = COALESCE(NULLIF(VALUES(audience), ''), audience),
    notes = COALESCE(NULLIF(VALUES(notes), ''), notes),
    artifact = COALESCE(VALUES(artifact), artifact),
    status = IF(status = 'building', VALUES(status), status);
`

const QSelectLeadMySQL = `--sql 17991445-fba5-47c3-8f21-3be5f895658b
SELECT job_id, status, name, email, business, category, style, location, offerings, audience, notes, artifact
FROM leads
WHERE job_id = ?
LIMIT 1;
`

const QCreateLeadsSQLite = `--sql 01218980-a558-444a-b1bb-b572153d84fd
CREATE TABLE IF NOT EXISTS leads (
    job_id      TEXT PRIMARY KEY,
    status      TEXT NOT NULL DEFAULT 'building',
    name        TEXT NOT NULL DEFAULT '',
    email       TEXT NOT NULL DEFAULT '',
    business    TEXT NOT NULL DEFAULT '',
    category    TEXT NOT NULL DEFAULT '',
    style       TEXT NOT NULL DEFAULT '',
    location    TEXT NOT NULL DEFAULT '',
    offerings   TEXT NOT NULL DEFAULT '',
    audience    TEXT NOT NULL DEFAULT '',
    notes       TEXT NOT NULL DEFAULT '',
    artifact    TEXT,
    created_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

const QUpsertLeadSQLite = `--sql 6ebeded4-7a3a-4b49-8972-28ba9c090fd5
INSERT INTO leads (job_id, status, name, email, business, category, style, location, offerings, audience, notes, artifact)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(job_id) DO UPDATE SET
    status = CASE WHEN leads.status = 'building' THEN excluded.status ELSE leads.status END,
    name = COALESCE(NULLIF(excluded.name, ''), leads.name),
    email = COALESCE(NULLIF(excluded.email, ''), leads.email),
    business = COALESCE(NULLIF(excluded.business, ''), leads.business),
    category = COALESCE(NULLIF(excluded.category, ''), leads.category),
    style = COALESCE(NULLIF(excluded.style, ''), leads.style),
    location = COALESCE(NULLIF(excluded.location, ''), leads.location),
    offerings = COALESCE(NULLIF(excluded.offerings, ''), leads.offerings),
    audience = COALESCE(NULLIF(excluded.audience, ''), leads.audience),
    notes = COALESCE(NULLIF(excluded.notes, ''), leads.notes),
    artifact = COALESCE(excluded.artifact, leads.artifact),
    updated_at = CURRENT_TIMESTAMP;
`

const QSelectLeadSQLite = `--sql e35fb650-dd6c-416f-8d23-d3f8d23737fc
SELECT job_id, status, name, email, business, category, style, location, offerings, audience, notes, artifact
FROM leads
WHERE job_id = ?
LIMIT 1;
`
