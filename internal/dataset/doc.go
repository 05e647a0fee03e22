// Package dataset loads KNMI short-term precipitation forecasts into an
// immutable in-memory array and hands out per-cell prediction views.
//
// # Data Sources
//
// Two products cover the same 700x765 grid over the Netherlands at a
// 5-minute resolution:
//
//	Simple:   RAD_NL25_RAC_FM_YYYYMMDDHHMM.h5
//	          The radar nowcast. 25 groups (image1..image25), each holding
//	          one 2D uint16 grid in its image_data variable, one grid per
//	          forecast step. Calibration formula per the KNMI HDF5 data
//	          format specification: mm per 5 minutes = raw * 0.01, so
//	          mm/hr = raw * 0.01 * 12.
//
//	Ensemble: KNMI_PYSTEPS_BLEND_ENS_YYYYMMDDHHMM.nc
//	          The pysteps blended ensemble. One 4D uint16 variable
//	          precip_intensity dimensioned [member, time, height, width]
//	          with 20 members. Values are already hourly-equivalent, so
//	          mm/hr = raw * 0.01. Per cell and step the members are
//	          reduced to a single value by rank selection; see
//	          ensembleRank.
//
// Filenames embed a zero-padded UTC timestamp, so the lexicographically
// largest matching filename in a directory is the most recent product.
//
// # Layout
//
// The loaded array is cell-major, step-minor:
//
//	offset(x, y, t) = (x*Width + y)*Steps + t
//
// A cell offset is always a multiple of Steps and at most MaxOffset. The
// grid package produces offsets with the same formula; the two must never
// diverge, since postcode index blobs store these offsets verbatim.
//
// Loading is all-or-nothing: any malformed group, variable, or filename
// aborts the load and no partial dataset is ever returned. After a
// successful load the array is never written again, so any number of
// goroutines may read predictions concurrently without locking.
package dataset
