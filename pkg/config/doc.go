/*
Package config loads the gitsync settings file.

	            +-------------+
	            |  Settings   |
	            +------+------+
	                   |
	     +-------------+-------------+
	     |             |             |
	+----+----+   +----+----+   +----+----+
	|  YAML   |   |  JSON   |   |   HCL   |
	| Parser  |   | Parser  |   | Parser  |
	+---------+   +---------+   +---------+

🎯 Purpose:
- Parses the settings file, choosing a parser by file extension
- Applies defaults and validates groupings and mappings
- Resolves relative paths against the settings file's directory

📦 Shape:

	backup_root: /var/backups/gitsync   # default <os temp>/gitsync
	retention: 10                       # snapshots kept per mapping
	workers: 4                          # mappings converted in parallel
	check_correctness: true             # round-trip verification
	groupings:
	  - nickname: skyrim
	    mappings:
	      - nickname: Update            # defaults to the binary's base name
	        binary_path: ./Data/Update.esm
	        folder_path: ./repo/Update

In HCL, a grouping is a labeled block and the variables env and home are
available for interpolation:

	backup_root = "${home}/.gitsync/backups"

	grouping "skyrim" {
	  mapping {
	    binary_path = "${env.GAME_DIR}/Data/Update.esm"
	    folder_path = "repo/Update"
	  }
	}

🔍 Example:

	settings, err := config.Load(ctx, ".gitsync.yaml")
	if err != nil {
		return err
	}
	for _, entry := range settings.Entries() {
		fmt.Println(entry.Grouping, entry.Mapping.Nickname)
	}
*/
package config
