package sqlinline

const QLedgerDebit = `--sql b558a103-f752-4b0d-a01a-425e07cfd363
with acct as (
    update credit_accounts
    set balance = balance + $2::bigint,
        updated_at = now()
    where tenant_id = $1::text
      and balance + $2::bigint >= 0
    returning tenant_id, balance
)
insert into credit_ledger_entries (id, tenant_id, delta, reason, balance_after, created_at)
select gen_random_uuid(), acct.tenant_id, $2::bigint, $3::text, acct.balance, now()
from acct
returning id::text, balance_after, created_at;
`

const QLedgerCredit = `--sql bbe7fb62-9cd5-4642-9cfc-a4a3522ff312
with acct as (
    insert into credit_accounts (tenant_id, balance, updated_at)
    values ($1::text, $2::bigint, now())
    on conflict (tenant_id) do update set
        balance = credit_accounts.balance + excluded.balance,
        updated_at = now()
    returning tenant_id, balance
)
insert into credit_ledger_entries (id, tenant_id, delta, reason, balance_after, created_at)
select gen_random_uuid(), acct.tenant_id, $2::bigint, $3::text, acct.balance, now()
from acct
returning id::text, balance_after, created_at;
`

const QLedgerBalance = `--sql d566fff5-f4a6-4880-a399-5c21a6cd0891
select balance
from credit_accounts
where tenant_id = $1::text;
`

const QLedgerEntries = `--sql 84a4826c-6469-41c7-ab9b-68f7eb297f29
select id::text, tenant_id, delta, reason, balance_after, created_at
from credit_ledger_entries
where tenant_id = $1::text
order by created_at desc, id desc
limit $2::int;
`
