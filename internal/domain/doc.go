// Package domain models upper-air soundings and the thermodynamic quantities
// derived from them.
//
// # Data Source
//
// Soundings come from the University of Wyoming upper-air archive
// (https://weather.uwyo.edu/upperair/sounding.html) in its fixed-width
// "TEXT:LIST" layout. Each data row is one observation level, surface first:
//
//	   PRES   HGHT   TEMP   DWPT   RELH   MIXR   DRCT   SKNT   THTA   THTE   THTV
//	    hPa     m      C      C      %    g/kg    deg   knot     K      K      K
//	 1000.0    270   22.2   19.4     84  14.45    170     12  295.3  337.0  297.9
//
// Only PRES, HGHT, TEMP, DWPT, DRCT and SKNT are kept. Blank cells (common
// above the tropopause for humidity, and for mandatory levels below ground)
// are represented as NaN rather than dropped.
//
// # Units
//
// Pressure is hPa, height is m, temperature and dewpoint are °C, wind
// direction is degrees from true north (the direction the wind blows FROM)
// and wind speed is knots. A [Sounding] carries these as [Unit] tags so the
// renderer can refuse data in another unit system.
//
// # Thermodynamics
//
// Constants follow the values used by MetPy: Rd = 287.04749 J/(kg·K),
// Rv = 461.52 J/(kg·K), Cp = 1004.6662 J/(kg·K), Lv = 2.50084e6 J/kg.
// Saturation vapor pressure uses the Bolton (1980) fit:
//
//	es(T) = 6.112 hPa · exp(17.67·T / (T + 243.5))
//
// The lifted condensation level is found by fixed-point iteration on the
// constant-mixing-ratio / dry-adiabat intersection. Above the LCL the parcel
// follows the pseudo-adiabatic lapse rate, integrated with fourth-order
// Runge-Kutta steps of at most [moistStep] hPa.
//
// # Surface Selection
//
// The first level is the lifted parcel. [Analyze] refuses soundings whose
// pressures are not strictly decreasing, so index 0 is guaranteed to be the
// highest-pressure (surface) observation.
//
// # ID Generation
//
// Analysis IDs are deterministic SHA-256 hashes of source|p|T|Td of the
// surface level, so republishing the same file yields the same Kafka key.
// See [generateID].
package domain
