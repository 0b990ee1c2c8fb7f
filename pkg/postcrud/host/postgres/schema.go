package postgres

// Schema creates the tables the host reads and writes. Column names match
// postcrud.HydratedColumns.
const Schema = `
CREATE TABLE IF NOT EXISTS posts (
	id                    BIGSERIAL PRIMARY KEY,
	post_type             VARCHAR(20)  NOT NULL DEFAULT 'post',
	post_author           BIGINT       NOT NULL DEFAULT 0,
	post_date             TIMESTAMP    NOT NULL DEFAULT NOW(),
	post_date_gmt         TIMESTAMP    NOT NULL DEFAULT (NOW() AT TIME ZONE 'UTC'),
	post_content          TEXT         NOT NULL DEFAULT '',
	post_title            TEXT         NOT NULL DEFAULT '',
	post_excerpt          TEXT         NOT NULL DEFAULT '',
	post_status           VARCHAR(20)  NOT NULL DEFAULT 'draft',
	comment_status        VARCHAR(20)  NOT NULL DEFAULT 'open',
	ping_status           VARCHAR(20)  NOT NULL DEFAULT 'open',
	post_password         VARCHAR(255) NOT NULL DEFAULT '',
	post_name             VARCHAR(200) NOT NULL DEFAULT '',
	to_ping               TEXT         NOT NULL DEFAULT '',
	pinged                TEXT         NOT NULL DEFAULT '',
	post_modified         TIMESTAMP    NOT NULL DEFAULT NOW(),
	post_modified_gmt     TIMESTAMP    NOT NULL DEFAULT (NOW() AT TIME ZONE 'UTC'),
	post_content_filtered TEXT         NOT NULL DEFAULT '',
	post_parent           BIGINT       NOT NULL DEFAULT 0,
	guid                  VARCHAR(255) NOT NULL DEFAULT '',
	menu_order            INTEGER      NOT NULL DEFAULT 0,
	comment_count         BIGINT       NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS posts_type_status_idx ON posts (post_type, post_status);
CREATE INDEX IF NOT EXISTS posts_parent_idx ON posts (post_parent);

CREATE TABLE IF NOT EXISTS postmeta (
	post_id    BIGINT       NOT NULL REFERENCES posts (id) ON DELETE CASCADE,
	meta_key   VARCHAR(255) NOT NULL,
	meta_value JSONB,
	PRIMARY KEY (post_id, meta_key)
);
`
