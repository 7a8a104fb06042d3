package database

// schema 表结构，按依赖顺序执行
var schema = []string{
	`CREATE TABLE IF NOT EXISTS departments (
		name TEXT PRIMARY KEY
	)`,
	`CREATE TABLE IF NOT EXISTS employees (
		employee_id           BIGINT PRIMARY KEY,
		first_name            TEXT NOT NULL,
		last_name             TEXT NOT NULL DEFAULT '',
		primary_department    TEXT NOT NULL,
		alternate1_department TEXT NOT NULL DEFAULT '',
		alternate2_department TEXT NOT NULL DEFAULT '',
		wage                  NUMERIC(12, 2) NOT NULL DEFAULT 0,
		desired_hours         INTEGER NOT NULL DEFAULT 0,
		overtime              INTEGER NOT NULL DEFAULT 0,
		medical               NUMERIC(12, 2) NOT NULL DEFAULT 0,
		workmans_comp         NUMERIC(12, 2) NOT NULL DEFAULT 0,
		social_security       NUMERIC(12, 2) NOT NULL DEFAULT 0,
		deleted_at            TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS shifts (
		id             UUID PRIMARY KEY,
		start_datetime TIMESTAMPTZ NOT NULL,
		end_datetime   TIMESTAMPTZ NOT NULL,
		department     TEXT NOT NULL,
		employee_id    BIGINT REFERENCES employees (employee_id),
		hide_start     BOOLEAN NOT NULL DEFAULT FALSE,
		hide_end       BOOLEAN NOT NULL DEFAULT FALSE,
		CHECK (start_datetime < end_datetime)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_shifts_start ON shifts (start_datetime)`,
	`CREATE INDEX IF NOT EXISTS idx_shifts_employee ON shifts (employee_id)`,
	`CREATE TABLE IF NOT EXISTS vacations (
		id             UUID PRIMARY KEY,
		employee_id    BIGINT NOT NULL REFERENCES employees (employee_id) ON DELETE CASCADE,
		start_datetime TIMESTAMPTZ NOT NULL,
		end_datetime   TIMESTAMPTZ NOT NULL,
		CHECK (start_datetime <= end_datetime)
	)`,
	`CREATE TABLE IF NOT EXISTS repeat_unavailability (
		id          UUID PRIMARY KEY,
		employee_id BIGINT NOT NULL REFERENCES employees (employee_id) ON DELETE CASCADE,
		weekday     SMALLINT NOT NULL CHECK (weekday BETWEEN 0 AND 6),
		start_time  TIME NOT NULL,
		end_time    TIME NOT NULL,
		CHECK (start_time < end_time)
	)`,
	`CREATE TABLE IF NOT EXISTS monthly_revenue (
		id             UUID PRIMARY KEY,
		month_and_year DATE NOT NULL,
		total_sales    NUMERIC(14, 2) NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_monthly_revenue_month ON monthly_revenue (month_and_year)`,
}
