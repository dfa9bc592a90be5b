// Package generation identifies the Legion hardware generation from
// firmware identification strings and describes the capability set a
// generation can offer.
//
// Detection is a pure function over DMI strings: ordered substring
// matching against known model markers, with an explicit fallback
// confidence when the strings name the family but not the exact
// generation. Detection never silently substitutes a default; deciding
// what to do with an Unknown or fallback result belongs to the
// lifecycle manager in the device package.
package generation
