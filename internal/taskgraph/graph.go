package taskgraph

import "sort"

// canonical returns ids sorted ascending with duplicates removed. The
// result is never nil, so edge sets marshal as [] rather than null.
func canonical(ids []int) []int {
	out := make([]int, 0, len(ids))
	seen := make(map[int]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Ints(out)
	return out
}

func contains(ids []int, id int) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func remove(ids []int, id int) []int {
	out := make([]int, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// normalizeIDs de-duplicates and sorts a batch of edge ids, then checks
// that every one has a persisted record. The whole batch is rejected on
// the first missing id so a partially valid request applies nothing.
func (s *Store) normalizeIDs(values []int) ([]int, error) {
	ids := canonical(values)
	for _, id := range ids {
		if !s.Exists(id) {
			return nil, &NotFoundError{ID: id}
		}
	}
	return ids, nil
}

// reconcile rewrites task id's own edge sets to exactly blockedBy and
// blocks, then walks every other record and adds or removes the reverse
// edges so both views of the relation agree. Only records whose edges
// actually changed are rewritten. The pass costs O(total tasks) per
// mutation and repairs any stale edge left behind by an earlier
// interrupted write.
func reconcile(s *Store, id int, blockedBy, blocks []int) error {
	tasks, err := s.List()
	if err != nil {
		return err
	}

	blockedBy = canonical(blockedBy)
	blocks = canonical(blocks)

	var target *Task
	for _, t := range tasks {
		if t.ID == id {
			target = t
			break
		}
	}
	if target == nil {
		return nil
	}

	target.BlockedBy = blockedBy
	target.Blocks = blocks
	if err := s.Save(target); err != nil {
		return err
	}

	for _, other := range tasks {
		if other.ID == id {
			continue
		}
		changed := false

		// id blocks other exactly when other lists id in blockedBy.
		if contains(blocks, other.ID) {
			if !contains(other.BlockedBy, id) {
				other.BlockedBy = append(other.BlockedBy, id)
				changed = true
			}
		} else if contains(other.BlockedBy, id) {
			other.BlockedBy = remove(other.BlockedBy, id)
			changed = true
		}

		// id is blocked by other exactly when other lists id in blocks.
		if contains(blockedBy, other.ID) {
			if !contains(other.Blocks, id) {
				other.Blocks = append(other.Blocks, id)
				changed = true
			}
		} else if contains(other.Blocks, id) {
			other.Blocks = remove(other.Blocks, id)
			changed = true
		}

		if changed {
			if err := s.Save(other); err != nil {
				return err
			}
		}
	}
	return nil
}

// clearDependency removes a completed task's id from every other task's
// blockedBy list and empties its own blocks list, so finished work stops
// gating anything. Running it again when already cleared is a no-op.
func clearDependency(s *Store, completedID int) error {
	tasks, err := s.List()
	if err != nil {
		return err
	}

	for _, t := range tasks {
		if t.ID == completedID {
			if len(t.Blocks) > 0 {
				t.Blocks = nil
				if err := s.Save(t); err != nil {
					return err
				}
			}
			continue
		}
		if contains(t.BlockedBy, completedID) {
			t.BlockedBy = remove(t.BlockedBy, completedID)
			if err := s.Save(t); err != nil {
				return err
			}
		}
	}
	return nil
}
