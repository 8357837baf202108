// Package taskgraph implements bosun's persistent task dependency graph.
//
// # Storage Model
//
// Every task is one JSON file named task_<id>.json inside a single
// directory, holding the full record:
//
//	{
//	  "id": 3,
//	  "subject": "Wire up the exporter",
//	  "description": "",
//	  "status": "pending",
//	  "blockedBy": [1, 2],
//	  "blocks": [],
//	  "owner": "planner"
//	}
//
// Records are created by Create and modified by Update; they are never
// deleted. Ids are positive integers allocated by an in-process sequence
// seeded from the highest id found on disk when the store opens. No
// record is cached between calls: every operation re-reads the files it
// needs, so the directory is always the single source of truth.
//
// # Blocking Edges
//
// blockedBy and blocks are two views of the same relation and are kept
// mutually consistent: B appears in A's blockedBy exactly when A appears
// in B's blocks. After any edge mutation a reconciliation pass walks
// every record, fixes the reverse edges, and rewrites only the records
// that changed. The pass is linear in the number of tasks, which is
// acceptable at the tens-to-hundreds scale this store is built for, and
// it repairs edges left stale by an earlier interrupted write.
//
// # Lifecycle
//
// Status moves pending -> in_progress -> completed. Setting a task to
// completed removes its id from every other task's blockedBy and empties
// its own blocks list, so finished work stops gating anything. A pending
// task with an empty blockedBy is ready.
//
// # Concurrency
//
// Manager serializes Create and Update behind one mutex so overlapping
// reconciliation passes cannot interleave. Reads are lock-free and may
// observe a graph mid-mutation when called concurrently; treat them as
// best-effort snapshots. Multiple processes sharing one directory are
// not supported.
//
// # Usage
//
//	mgr, err := taskgraph.NewManager(".bosun/tasks")
//	a, err := mgr.Create("Ship the release", "", "", nil, nil)
//	b, err := mgr.Create("Tag the build", "", "", []int{a.ID}, nil)
//	_, err = mgr.Update(a.ID, taskgraph.Update{Status: "completed"})
//	board, err := mgr.ListAll() // b is now in board.Ready
package taskgraph
