package node

import (
	"github.com/LENAX/depman/pkg/storage"
)

// Classify 根据存储记录、当前哈希和当前父节点快照判断陈旧度
// 判定顺序：new, changed, parents_number, parents_order, parents_changed, ok
func Classify(record *storage.HashRecord, hash string, parents []storage.ParentHash) State {
	if record == nil {
		return StateNew
	}
	if record.Hash != hash {
		return StateChanged
	}

	stored := make(map[string]struct{}, len(record.Parents))
	for _, p := range record.Parents {
		stored[p.ID] = struct{}{}
	}
	current := make(map[string]struct{}, len(parents))
	for _, p := range parents {
		current[p.ID] = struct{}{}
		if _, ok := stored[p.ID]; !ok {
			return StateParentsNumber
		}
	}
	for id := range stored {
		if _, ok := current[id]; !ok {
			return StateParentsNumber
		}
	}
	// 集合相同但重复次数不同
	if len(record.Parents) != len(parents) {
		return StateParentsNumber
	}

	for i, p := range parents {
		if record.Parents[i].ID != p.ID {
			return StateParentsOrder
		}
	}
	for i, p := range parents {
		if record.Parents[i].Hash != p.Hash {
			return StateParentsChanged
		}
	}
	return StateOK
}
