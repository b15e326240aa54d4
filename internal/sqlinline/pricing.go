package sqlinline

const QSelectProduct = `--sql 386bb019-82ce-4fb9-8ade-9593f860072c
select
  id::text,
  tenant_id,
  name,
  category,
  current_price::float8,
  min_price::float8,
  max_price::float8,
  stock,
  competitor_price::float8,
  sales_history,
  season,
  auto_approve,
  status,
  last_price_update
from products
where tenant_id = $1::text and id = $2::uuid
limit 1;
`

const QListAutoApproveCandidates = `--sql 0bda98be-a3f5-4782-bb25-1e041879c21c
select
  id::text,
  tenant_id,
  name,
  category,
  current_price::float8,
  min_price::float8,
  max_price::float8,
  stock,
  competitor_price::float8,
  sales_history,
  season,
  auto_approve,
  status,
  last_price_update
from products
where auto_approve = true and status = 'pending'
order by tenant_id, id;
`

const QInsertPriceSuggestion = `--sql 2c0ed44b-e1d1-4e45-a5e0-a7ea97c2d00c
insert into price_suggestions (
  id,
  tenant_id,
  product_id,
  current_price,
  suggested_price,
  change_percent,
  confidence,
  reasoning,
  source,
  formula_inputs,
  applied,
  created_at
) values ($1::uuid, $2::text, $3::uuid, $4, $5, $6, $7, $8, $9, $10::jsonb, false, $11);
`

const QMarkProductPending = `--sql 5010b617-333c-49b1-af4f-357e75b2368a
update products
set status = 'pending',
    updated_at = now()
where tenant_id = $1::text and id = $2::uuid;
`

const QLatestUnappliedSuggestion = `--sql db46660a-9c9b-4790-b731-bc1f48ae0584
select
  id::text,
  tenant_id,
  product_id::text,
  current_price::float8,
  suggested_price::float8,
  change_percent::float8,
  confidence::float8,
  coalesce(reasoning, ''),
  source,
  formula_inputs,
  applied,
  created_at,
  applied_at
from price_suggestions
where tenant_id = $1::text and product_id = $2::uuid and applied = false
order by created_at desc
limit 1;
`

const QApplyProductPrice = `--sql f44b38eb-d771-4054-af24-99ab3902ce7f
update products
set current_price = $3,
    status = 'approved',
    last_price_update = $4,
    updated_at = now()
where tenant_id = $1::text and id = $2::uuid;
`

// QApplyAutoProductPrice only touches products that still opt into
// auto-approval and are still pending.
const QApplyAutoProductPrice = `--sql 1cc7a32e-5570-4820-9394-0e607e64f132
update products
set current_price = $3,
    status = 'approved',
    last_price_update = $4,
    updated_at = now()
where tenant_id = $1::text and id = $2::uuid and auto_approve = true and status = 'pending';
`

const QMarkSuggestionApplied = `--sql 2bee7e1a-3ddc-4184-91ef-dc196a4d67a5
update price_suggestions
set applied = true,
    applied_at = $3
where tenant_id = $1::text and id = $2::uuid and applied = false;
`

const QInsertActivityLog = `--sql d4a086bb-d242-4390-8adb-dafb11d0af62
insert into activity_log (id, tenant_id, action, entity_type, entity_id, details, created_at)
values (gen_random_uuid(), $1::text, $2::text, $3::text, $4::text, $5::jsonb, $6);
`
