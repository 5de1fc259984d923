// Package liquid models the temperature-dependent physical properties of a
// liquid used by liquid-handling robots. It contains:
//
//   - Interpolate / Curve: two-point linear interpolation of a property
//     between its calibration temperatures
//   - Definition / Liquid / Properties: a named liquid, its calibration
//     curves, and the property values estimated at the lab temperature
//   - Handling: pipetting parameters, either supplied explicitly or derived
//     from the estimated physical properties
//
// These types are shared across daemon, client and CLI code to keep JSON
// contracts consistent.
package liquid
