package catalog

const schemaChannels = `
CREATE TABLE IF NOT EXISTS channels (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    language TEXT NOT NULL DEFAULT 'auto',
    watermark TEXT,
    active INTEGER NOT NULL DEFAULT 1,
    summary_prompt TEXT,
    topics_prompt TEXT,
    introduction_prompt TEXT,
    script_prompt TEXT,
    reuse_cap_override INTEGER NOT NULL DEFAULT 0,
    threshold_override REAL NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL
)`

const schemaItems = `
CREATE TABLE IF NOT EXISTS items (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    channel_id TEXT NOT NULL REFERENCES channels(id),
    link TEXT NOT NULL,
    config_json TEXT,
    transcript_done_at TEXT,
    summary_done_at TEXT,
    topics_done_at TEXT,
    introduction_done_at TEXT,
    segment_content_done_at TEXT,
    audio_done_at TEXT,
    last_error TEXT,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    UNIQUE(channel_id, link)
)`

const schemaItemsChannelIndex = `
CREATE INDEX IF NOT EXISTS idx_items_channel ON items(channel_id)`

// stageColumns maps stage order to checkpoint column names. Order must match
// the stage package.
var stageColumns = [...]string{
	"transcript_done_at",
	"summary_done_at",
	"topics_done_at",
	"introduction_done_at",
	"segment_content_done_at",
	"audio_done_at",
}
