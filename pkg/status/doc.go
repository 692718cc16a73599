/*
Package status reports the state of each side of a mapping.

	     +-----------+         +-----------+
	     |  binary   |         |  folder   |
	     |   side    |         |   side    |
	     +-----+-----+         +-----+-----+
	           |                     |
	           +---------+-----------+
	                     |
	               +-----+-----+
	               |  Tracker  |
	               +-----------+

🎯 Purpose:
- Remembers the last conversion error for the side a conversion wrote to
- Checks on demand whether each side's path exists
- Formats the result for the console

A side is in Error while its last conversion failed, in Warning while its
path is missing, and None otherwise. Callers poll with Check; nothing is
watched in the background.
*/
package status
