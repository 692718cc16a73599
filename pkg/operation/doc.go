/*
Package operation runs conversions for many mappings at once.

	+-------------+
	|    Jobs     |
	| (mappings)  |
	+------+------+
	       |
	+------+------+
	|   Runner    |
	|  (errgroup) |
	+------+------+
	       |
	+------+------+
	|  Converter  |
	|  (engine)   |
	+-------------+

🎯 Purpose:
- Fans conversion jobs out over a bounded number of workers
- Serializes jobs that write to the same destination
- Reports every job separately so one failure never hides another

🔄 Flow:
1. The caller builds one Job per selected mapping and a direction
2. Each job waits for a worker slot and for its destination's lock
3. The converter runs with the mapping's backup root and the settings' retention
4. A Report is handed to Notify as soon as the job finishes, then returned in job order

The context is consulted only before a job starts. A conversion that has
begun always runs to completion so the destination is never left mid-swap.

🔍 Example:

	runner, err := operation.New(operation.Options{
		Converter: engine,
		Settings:  settings,
		Notify:    func(r operation.Report) { logger.Report(r) },
	})
	if err != nil {
		return err
	}
	reports := runner.Run(ctx, operation.JobsFor(entries, conversion.ToXML))
*/
package operation
