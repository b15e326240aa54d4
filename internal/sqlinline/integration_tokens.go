package sqlinline

// Vendor API keys, one row per provider tag.

const QSelectIntegrationToken = `--sql 5b0e7c3d-94a2-4f6e-b1d8-2c7a9e4f0b13
select token
from vendor_credentials
where provider = $1::text
  and revoked_at is null;
`

const QUpsertIntegrationToken = `--sql c2d84f61-3e7a-4b95-8f0c-a61e5d7b2934
insert into vendor_credentials (provider, token, rotated_at)
values ($1::text, $2::text, $3)
on conflict (provider) do update set
    token = excluded.token,
    rotated_at = excluded.rotated_at,
    revoked_at = null;
`
