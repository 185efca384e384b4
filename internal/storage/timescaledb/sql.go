package timescaledb

const createPointsTableSQL = `
CREATE TABLE IF NOT EXISTS atl11_points (
    ref_pt bigint NOT NULL,
    cycle_number integer NOT NULL,
    longitude float8 NOT NULL,
    latitude float8 NOT NULL,
    h_corr float8 NULL,
    delta_time bigint NULL,
    quality_summary smallint NULL,
    PRIMARY KEY (ref_pt, cycle_number)
);`

const createRunsTableSQL = `
CREATE TABLE IF NOT EXISTS dhdt_runs (
    run_id uuid PRIMARY KEY,
    started_at timestamp WITH TIME ZONE NOT NULL,
    region text NULL,
    min_valid_heights integer NOT NULL,
    min_height_range float8 NOT NULL,
    loaded bigint NOT NULL,
    ranged bigint NOT NULL,
    active bigint NOT NULL,
    trended bigint NOT NULL
);`

const createResultsTableSQL = `
CREATE TABLE IF NOT EXISTS dhdt_results (
    run_id uuid NOT NULL REFERENCES dhdt_runs (run_id) ON DELETE CASCADE,
    ref_pt bigint NOT NULL,
    x float8 NOT NULL,
    y float8 NOT NULL,
    h_range float8 NULL,
    fitted boolean NOT NULL,
    dhdt_slope float8 NULL,
    dhdt_intercept float8 NULL,
    dhdt_rvalue float8 NULL,
    dhdt_pvalue float8 NULL,
    dhdt_stderr float8 NULL,
    PRIMARY KEY (run_id, ref_pt)
);`

const createResultsSlopeIndexSQL = `
CREATE INDEX IF NOT EXISTS dhdt_results_slope_idx ON dhdt_results (run_id, abs(dhdt_slope));`
