package mqtt

import "context"

// Writer publishes payloads.
type Writer interface {
	WriteTopic(ctx context.Context, topic string, options WriteOptions, value []byte) error
}

// Error keeps only the error of a Value.Write so several writes can be passed to errors.Join.
func Error[T any](_ T, err error) error {
	return err
}
