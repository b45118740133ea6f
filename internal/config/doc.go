// Package config loads and validates the scheduler's settings from
// a .env file, an optional config.yaml and SCHED_-prefixed environment
// variables. The review section supplies the defaults used for learners who
// have not saved their own review settings.
package config
