package usecase

import (
	"ordinary-note/internal/domain/model"

	"github.com/sirupsen/logrus"
)

type FolderTreeNode struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	ParentID  *string           `json:"parentId"`
	SortOrder int               `json:"sortOrder"`
	NoteCount int               `json:"noteCount"`
	Children  []*FolderTreeNode `json:"children"`
}

// BuildFolderTree はフラットな一覧を木にする。
// 子の順番は入力順（sort_order順で渡される前提）で、並べ替えはしない。
// 親が入力に無いフォルダはルート扱いにしてwarnを出す。循環は書き込み時に防いでいる。
func BuildFolderTree(folders []model.FolderWithCounts, log logrus.FieldLogger) []*FolderTreeNode {
	nodes := make(map[string]*FolderTreeNode, len(folders))
	roots := make([]*FolderTreeNode, 0)

	for _, f := range folders {
		nodes[f.ID] = &FolderTreeNode{
			ID:        f.ID,
			Name:      f.Name,
			ParentID:  f.ParentID,
			SortOrder: f.SortOrder,
			NoteCount: f.NoteCount,
			Children:  make([]*FolderTreeNode, 0),
		}
	}

	for _, f := range folders {
		node := nodes[f.ID]
		if f.ParentID == nil {
			roots = append(roots, node)
			continue
		}

		parent, ok := nodes[*f.ParentID]
		if !ok {
			if log != nil {
				log.WithFields(logrus.Fields{"folder_id": f.ID, "parent_id": *f.ParentID}).
					Warn("folder parent not in listing, treating as root")
			}
			roots = append(roots, node)
			continue
		}
		parent.Children = append(parent.Children, node)
	}

	return roots
}
