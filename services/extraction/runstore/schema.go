package runstore

const Schema = `
CREATE TABLE IF NOT EXISTS extraction_runs (
    run_id          TEXT NOT NULL,
    target_id       TEXT NOT NULL,
    state           TEXT NOT NULL,
    units_completed INTEGER NOT NULL,
    units_aborted   INTEGER NOT NULL,
    records_written INTEGER NOT NULL,
    records_total   INTEGER NOT NULL,
    started_at      INTEGER NOT NULL,
    finished_at     INTEGER NOT NULL,
    error           TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (run_id, target_id)
);

CREATE INDEX IF NOT EXISTS idx_extraction_runs_target
    ON extraction_runs (target_id, finished_at);
`
