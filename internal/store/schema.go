package store

// Orders keep plant_id as a weak reference (no foreign key): a product may be
// removed while orders against it still exist, and the enrichment view reports
// those rows instead of dropping them.
//
// products.quantity deliberately carries no CHECK constraint. Non-negativity
// is enforced by the ledger's guarded decrement, not by the storage engine.

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS accounts(
  email      TEXT PRIMARY KEY,
  name       TEXT NOT NULL DEFAULT '',
  image      TEXT NOT NULL DEFAULT '',
  role       TEXT NOT NULL DEFAULT 'customer' CHECK (role IN ('customer','seller','admin')),
  created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS products(
  id           TEXT PRIMARY KEY,
  name         TEXT NOT NULL,
  category     TEXT NOT NULL,
  description  TEXT NOT NULL DEFAULT '',
  price        TEXT NOT NULL,
  image        TEXT NOT NULL DEFAULT '',
  quantity     INTEGER NOT NULL DEFAULT 0,
  seller_name  TEXT NOT NULL DEFAULT '',
  seller_email TEXT NOT NULL,
  seller_image TEXT NOT NULL DEFAULT '',
  created_at   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_products_created_at ON products(created_at);

CREATE TABLE IF NOT EXISTS orders(
  id             TEXT PRIMARY KEY,
  plant_id       TEXT NOT NULL,
  customer_name  TEXT NOT NULL DEFAULT '',
  customer_email TEXT NOT NULL,
  customer_image TEXT NOT NULL DEFAULT '',
  seller_email   TEXT NOT NULL DEFAULT '',
  quantity       INTEGER NOT NULL CHECK (quantity >= 1),
  price          TEXT NOT NULL,
  address        TEXT NOT NULL,
  status         TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending','processing','delivered')),
  created_at     INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_orders_customer ON orders(customer_email);
`

const postgresSchema = `
CREATE TABLE IF NOT EXISTS accounts(
  email      TEXT PRIMARY KEY,
  name       TEXT NOT NULL DEFAULT '',
  image      TEXT NOT NULL DEFAULT '',
  role       TEXT NOT NULL DEFAULT 'customer' CHECK (role IN ('customer','seller','admin')),
  created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS products(
  id           TEXT PRIMARY KEY,
  name         TEXT NOT NULL,
  category     TEXT NOT NULL,
  description  TEXT NOT NULL DEFAULT '',
  price        NUMERIC(12,2) NOT NULL,
  image        TEXT NOT NULL DEFAULT '',
  quantity     INTEGER NOT NULL DEFAULT 0,
  seller_name  TEXT NOT NULL DEFAULT '',
  seller_email TEXT NOT NULL,
  seller_image TEXT NOT NULL DEFAULT '',
  created_at   BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_products_created_at ON products(created_at);

CREATE TABLE IF NOT EXISTS orders(
  id             TEXT PRIMARY KEY,
  plant_id       TEXT NOT NULL,
  customer_name  TEXT NOT NULL DEFAULT '',
  customer_email TEXT NOT NULL,
  customer_image TEXT NOT NULL DEFAULT '',
  seller_email   TEXT NOT NULL DEFAULT '',
  quantity       INTEGER NOT NULL CHECK (quantity >= 1),
  price          NUMERIC(12,2) NOT NULL,
  address        TEXT NOT NULL,
  status         TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending','processing','delivered')),
  created_at     BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_orders_customer ON orders(customer_email);
`
