// Package timing loads the eclipse circumstances table produced by the
// external planning tool and resolves event names to absolute times.
//
// The export is decorative text with recognisable lines embedded in it:
// contact times ("First Contact 2026/08/12 18:26:19.1 ..." or the short
// "C1 2026/08/12 18:26:19.1" form), the maximum ("Max Eclipse ..."), the
// magnitude at maximum, and a magnitude-versus-time table. Lines that
// match none of these shapes are skipped silently; a line that matches a
// shape but carries an unparseable timestamp fails the load.
//
// Beyond the contact events (C1..C4, MAX), Table.Time resolves magnitude
// references of the form "MAGPRE 60.0" / "MAGPOST 60.0": the moment the
// eclipse magnitude passes the given percentage on the way in or out,
// interpolated from the magnitude table, or linearly between contacts
// when no table was present in the export.
package timing
