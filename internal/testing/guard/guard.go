package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("CONTALIBRE_TEST_MODE") == "" {
			_ = os.Setenv("CONTALIBRE_TEST_MODE", "1")
		}
	})
}
