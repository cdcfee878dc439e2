package codegen

import (
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codemail/backend/internal/domain"
)

func TestGenerator_Generate(t *testing.T) {
	generator := NewGenerator()

	t.Run("编码格式为形容词-名词-三位数字", func(t *testing.T) {
		for i := 0; i < 200; i++ {
			code := generator.Generate()

			parts := strings.Split(code, "-")
			require.Len(t, parts, 3, "code: %s", code)

			assert.Contains(t, adjectives, parts[0])
			assert.Contains(t, nouns, parts[1])

			number, err := strconv.Atoi(parts[2])
			require.NoError(t, err, "code: %s", code)
			assert.GreaterOrEqual(t, number, 100)
			assert.LessOrEqual(t, number, 999)
		}
	})

	t.Run("生成的编码通过格式校验", func(t *testing.T) {
		for i := 0; i < 100; i++ {
			assert.NoError(t, domain.ValidateCode(generator.Generate()))
		}
	})

	t.Run("并发生成不会竞争", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 100; j++ {
					generator.Generate()
				}
			}()
		}
		wg.Wait()
	})
}
