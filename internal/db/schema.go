package db

// SchemaSQL defines the key/value table holding workspace state.
// Values are JSON documents stored as strings so they round-trip byte for byte.
const SchemaSQL = `
    DEFINE TABLE IF NOT EXISTS app_state SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS value ON app_state TYPE string;
    DEFINE FIELD IF NOT EXISTS updated ON app_state TYPE datetime DEFAULT time::now();
`
