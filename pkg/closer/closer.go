// Package closer собирает функции освобождения ресурсов и закрывает
// их в порядке, обратном регистрации.
package closer

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Func — функция закрытия одного ресурса.
type Func func(ctx context.Context) error

// Closer регистрирует ресурсы и закрывает их в порядке LIFO.
// Если переданный в Close контекст истекает раньше, оставшиеся
// ресурсы закрываются параллельно с собственным жёстким таймаутом.
type Closer struct {
	mu          sync.Mutex
	once        sync.Once
	funcs       []Func
	hardTimeout time.Duration
}

func NewCloser(hardTimeout time.Duration) *Closer {
	if hardTimeout <= 0 {
		hardTimeout = 2 * time.Second
	}

	return &Closer{hardTimeout: hardTimeout}
}

// Add регистрирует функцию закрытия. Потокобезопасна.
func (c *Closer) Add(f Func) {
	c.mu.Lock()
	c.funcs = append(c.funcs, f)
	c.mu.Unlock()
}

// Close закрывает все зарегистрированные ресурсы. Повторные вызовы
// ничего не делают и возвращают nil.
func (c *Closer) Close(ctx context.Context) error {
	var err error
	c.once.Do(func() {
		c.mu.Lock()
		funcs := c.funcs
		c.mu.Unlock()

		var msgs []string
		for i := len(funcs) - 1; i >= 0; i-- {
			done := make(chan error, 1)
			go func(f Func) { done <- f(ctx) }(funcs[i])

			select {
			case ferr := <-done:
				if ferr != nil {
					msgs = append(msgs, ferr.Error())
				}
			case <-ctx.Done():
				// Контекст истёк: добиваем остаток без очереди
				msgs = append(msgs, c.closeRemaining(funcs[:i+1])...)
				err = fmt.Errorf(
					"shutdown interrupted, %d of %d resources closed forcibly: %s",
					i+1, len(funcs), strings.Join(msgs, "; "),
				)
				return
			}
		}

		if len(msgs) > 0 {
			err = fmt.Errorf("shutdown finished with errors: %s", strings.Join(msgs, "; "))
		}
	})

	return err
}

// closeRemaining параллельно закрывает funcs, отводя на всё hardTimeout.
func (c *Closer) closeRemaining(funcs []Func) []string {
	ctx, cancel := context.WithTimeout(context.Background(), c.hardTimeout)
	defer cancel()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		msgs []string
	)

	for _, f := range funcs {
		wg.Add(1)
		go func(f Func) {
			defer wg.Done()
			if err := f(ctx); err != nil {
				mu.Lock()
				msgs = append(msgs, err.Error())
				mu.Unlock()
			}
		}(f)
	}

	wg.Wait()
	return msgs
}
