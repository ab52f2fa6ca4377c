// Package climate implements the Gray Logic Climate control loop.
//
// Each cycle reads the thermostat and decides which network switches to turn
// on or off so that space heaters, fans and humidifiers supplement the HVAC
// system, without ever undoing what a person switched by hand.
//
// # Cycle
//
//	Registry.Refresh ─▶ Thermostat.CurrentReading ─▶ OverrideDetector.Reconcile
//	        ─▶ Policy.Apply (status change, humidity, aux heat, sweep)
//	        ─▶ CycleReport ─▶ Sinks (MQTT, InfluxDB, audit, status API)
//
// # Ledger
//
// The Ledger records, per purpose (heating, cooling, humidifying), the
// switches automation turned on. Only ledger members are ever turned off
// automatically. A member found off during reconciliation was switched off by
// a person and is released from control. Heating and cooling claims on the
// same switch are mutually exclusive. Humidifying claims stack with either,
// and a switch holding both is never turned off for only one of them.
//
// # Episodes
//
// Aux heat engages at most once per HEATING episode and re-arms on the next
// status change. Humidifiers engage once when humidity drops below
// target-threshold and release when it rises above target+threshold.
//
// # Failures
//
// Every device interaction yields an Outcome. A failed thermostat read skips
// the cycle's decisions and keeps the previous status. A switch whose
// off-command keeps failing is dropped from the ledger after
// MaxPowerOffRetries attempts. A panic abandons the cycle, never the loop.
package climate
