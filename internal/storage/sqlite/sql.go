package sqlite

const createPointsTableSQL = `
CREATE TABLE IF NOT EXISTS atl11_points (
	ref_pt          INTEGER NOT NULL,
	cycle_number    INTEGER NOT NULL,
	longitude       REAL NOT NULL,
	latitude        REAL NOT NULL,
	h_corr          REAL,
	delta_time      INTEGER,
	quality_summary INTEGER,
	PRIMARY KEY (ref_pt, cycle_number)
)`

const createRunsTableSQL = `
CREATE TABLE IF NOT EXISTS dhdt_runs (
	run_id            TEXT PRIMARY KEY,
	started_at        TEXT NOT NULL,
	region            TEXT,
	min_valid_heights INTEGER NOT NULL,
	min_height_range  REAL NOT NULL,
	loaded            INTEGER NOT NULL,
	ranged            INTEGER NOT NULL,
	active            INTEGER NOT NULL,
	trended           INTEGER NOT NULL
)`

const createResultsTableSQL = `
CREATE TABLE IF NOT EXISTS dhdt_results (
	run_id         TEXT NOT NULL,
	ref_pt         INTEGER NOT NULL,
	x              REAL NOT NULL,
	y              REAL NOT NULL,
	h_range        REAL,
	fitted         INTEGER NOT NULL,
	dhdt_slope     REAL,
	dhdt_intercept REAL,
	dhdt_rvalue    REAL,
	dhdt_pvalue    REAL,
	dhdt_stderr    REAL,
	PRIMARY KEY (run_id, ref_pt)
)`

const selectCyclesSQL = `SELECT DISTINCT cycle_number FROM atl11_points ORDER BY cycle_number`

const selectPointsSQL = `
SELECT ref_pt, cycle_number, longitude, latitude, h_corr, delta_time, quality_summary
FROM atl11_points
ORDER BY ref_pt, cycle_number`

const insertPointSQL = `
INSERT OR REPLACE INTO atl11_points
	(ref_pt, cycle_number, longitude, latitude, h_corr, delta_time, quality_summary)
VALUES (?, ?, ?, ?, ?, ?, ?)`

const insertRunSQL = `
INSERT INTO dhdt_runs
	(run_id, started_at, region, min_valid_heights, min_height_range, loaded, ranged, active, trended)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

const insertResultSQL = `
INSERT INTO dhdt_results
	(run_id, ref_pt, x, y, h_range, fitted, dhdt_slope, dhdt_intercept, dhdt_rvalue, dhdt_pvalue, dhdt_stderr)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const selectResultsSQL = `
SELECT run_id, ref_pt, x, y, h_range, fitted, dhdt_slope, dhdt_intercept, dhdt_rvalue, dhdt_pvalue, dhdt_stderr
FROM dhdt_results
WHERE run_id = ?
ORDER BY ref_pt`
