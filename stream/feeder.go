package stream

// Feeder consumes bytes incrementally. Feed is called with each not yet consumed
// region of the stream exactly once; Reset starts a new logical stream.
type Feeder interface {
	Feed(p []byte)
	Reset()
}

type multiFeeder []Feeder

// MultiFeeder returns a Feeder that passes every region to each of feeders in
// order, like io.MultiWriter. It lets several extractors share one stream.
func MultiFeeder(feeders ...Feeder) Feeder {
	all := make(multiFeeder, 0, len(feeders))
	for _, f := range feeders {
		if f == nil {
			continue
		}
		if mf, ok := f.(multiFeeder); ok {
			all = append(all, mf...)
			continue
		}
		all = append(all, f)
	}

	return all
}

func (m multiFeeder) Feed(p []byte) {
	for _, f := range m {
		f.Feed(p)
	}
}

func (m multiFeeder) Reset() {
	for _, f := range m {
		f.Reset()
	}
}
