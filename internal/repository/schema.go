package repository

// Schema is the DDL for every table the stores use. {db} is replaced with the client's database.
var Schema = []string{
	`CREATE DATABASE IF NOT EXISTS {db}`,
	`CREATE TABLE IF NOT EXISTS {db}.daily_bars (
		symbol      LowCardinality(String),
		date        Date,
		open        Float64,
		high        Float64,
		low         Float64,
		close       Float64,
		volume      Float64,
		ingested_at DateTime64(3)
	) ENGINE = ReplacingMergeTree(ingested_at)
	ORDER BY (symbol, date)`,
	`CREATE TABLE IF NOT EXISTS {db}.predictions (
		symbol              LowCardinality(String),
		run_id              String,
		stage               LowCardinality(String),
		date                Date,
		actual              Nullable(Float64),
		predicted           Float64,
		error               Nullable(Float64),
		error_pct           Nullable(Float64),
		direction_actual    Nullable(Int8),
		direction_predicted Nullable(Int8),
		created_at          DateTime64(3)
	) ENGINE = MergeTree
	ORDER BY (symbol, stage, created_at, date)`,
	`CREATE TABLE IF NOT EXISTS {db}.forecast_metrics (
		symbol             LowCardinality(String),
		kind               LowCardinality(String),
		run_id             String,
		created_at         DateTime64(3),
		mse                Nullable(Float64),
		rmse               Nullable(Float64),
		mae                Nullable(Float64),
		mape               Nullable(Float64),
		r2                 Nullable(Float64),
		direction_accuracy Nullable(Float64),
		matched            UInt32,
		predicted_only     UInt32,
		actual_only        UInt32,
		direction_samples  UInt32,
		correct_directions UInt32
	) ENGINE = MergeTree
	ORDER BY (symbol, kind, created_at)`,
}
