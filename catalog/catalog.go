package catalog

import (
	"encoding/json"
	"errors"
	"os"
	"sort"
	"strconv"
)

// Behavior 单个行为的量表：按档位（"0"/"1"/"2"）索引的双语文本。
type Behavior struct {
	Name     string            `json:"name,omitempty"`
	Labels   map[string]string `json:"labels"`
	LabelsES map[string]string `json:"labels_es"`
}

// Catalog 行为目录：behavior_id -> 量表。
// 进程启动时从 label_map.json 加载一次，此后只读；合法行为ID集合即其键集。
type Catalog map[string]Behavior

// Load 从 label_map.json 加载行为目录。
// 文件不存在时返回空目录（视为零行为，不算错误）；内容非法返回解码错误。
func Load(path string) (Catalog, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Catalog{}, nil
	}
	if err != nil {
		return nil, err
	}
	var c Catalog
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	return c, nil
}

// Has 判断行为ID是否在目录内。
func (c Catalog) Has(id string) bool { _, ok := c[id]; return ok }

// IDs 返回全部行为ID（排序后），用于校验失败时的提示与 /api/behaviors。
func (c Catalog) IDs() []string {
	ids := make([]string, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Rubric 返回指定行为在指定档位的双语量表文本。
// 目录缺失该行为或该档位缺失文本时返回空串，不报错。
func (c Catalog) Rubric(id string, score int) (en, es string) {
	b, ok := c[id]
	if !ok {
		return "", ""
	}
	key := strconv.Itoa(score)
	return b.Labels[key], b.LabelsES[key]
}
