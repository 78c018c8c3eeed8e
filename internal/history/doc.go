// Package history extracts art-change mentions from a character's rendered
// patch-history page on the community wiki.
//
// Extraction is split in two stages:
//
//  1. Parser.Parse consumes the HTML. It is the only code that knows the
//     page layout and yields a typed []Entry: for each release heading
//     above the minimum supported version, the link texts found in the
//     segments whose text contains " art".
//  2. Candidates is a pure function that attributes each entry to its
//     effective release, the release immediately preceding the heading in
//     the global release list, and drops headings that cannot be
//     attributed.
//
// # Page layout
//
// A release section looks like:
//
//	<dl><dt><a href="/wiki/V5.1" title="V5.1">V5.1</a></dt></dl>
//	<ul>
//	  <li><a href="/wiki/Goth_Annie">Goth Annie</a> art updated.</li>
//	  <li>Q damage increased.</li>
//	</ul>
//
// The heading link's title carries the release; the element that follows
// the <dl> is the release block.
package history
