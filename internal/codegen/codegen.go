package codegen

import (
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// 编码词表。词表是对外契约的一部分：历史数据中的编码都由这两组
// 词汇组合而成，扩充词表不影响旧编码的可解析性。
var (
	adjectives = []string{"swift", "clever", "silent", "wise", "brave", "calm", "eager", "jolly"}
	nouns      = []string{"fox", "river", "moon", "star", "forest", "mountain", "ocean", "cloud"}
)

// Generator 生成 "形容词-名词-三位数字" 形式的邮箱编码。
//
// 生成是纯随机的，不查询存储也不保证唯一；调用方在编码冲突时
// 负责重试。非加密随机即可满足需求，编码不是安全凭证。
type Generator struct {
	mu     sync.Mutex
	random *rand.Rand
}

// NewGenerator 创建编码生成器。
func NewGenerator() *Generator {
	return &Generator{
		random: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Generate 返回一个随机编码，如 "swift-fox-123"。
// 数字部分取值范围 [100, 999]。
func (g *Generator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	adjective := adjectives[g.random.Intn(len(adjectives))]
	noun := nouns[g.random.Intn(len(nouns))]
	number := g.random.Intn(900) + 100

	return fmt.Sprintf("%s-%s-%d", adjective, noun, number)
}
