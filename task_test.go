package cotask_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/krellyn/cotask"
	"github.com/krellyn/cotask/hostloop"
)

func newRuntime() *cotask.Runtime {
	return cotask.New(hostloop.New(hostloop.DefaultConfig()))
}

func TestSpawnRunsToCompletion(t *testing.T) {
	rt := newRuntime()

	tk := rt.Spawn(func(_ *cotask.Task, args cotask.Values) (cotask.Values, error) {
		return cotask.Vals(args.First().(int) + 1), nil
	}, 41)

	if !tk.IsDone() {
		t.Fatal("task with no suspension points should be dead after Spawn")
	}
	vals, err := tk.Future().Result()
	if err != nil || vals.First() != 42 {
		t.Fatalf("got %v, %v; want [42], nil", vals, err)
	}
}

func TestYieldResumeValueFlow(t *testing.T) {
	rt := newRuntime()

	tk := rt.Spawn(func(tk *cotask.Task, args cotask.Values) (cotask.Values, error) {
		in := tk.Yield(args.First().(int) * 10)
		return cotask.Vals(in.First().(string) + "!"), nil
	}, 7)

	if got := tk.Status(); got != cotask.Suspended {
		t.Fatalf("status = %v; want suspended", got)
	}
	out := tk.Resume("hi")
	if out != nil {
		t.Fatalf("final resume yielded %v; want nil", out)
	}
	vals, err := tk.Future().Result()
	if err != nil || vals.First() != "hi!" {
		t.Fatalf("got %v, %v; want [hi!], nil", vals, err)
	}
}

func TestSpawnYieldedValuesReachNobody(t *testing.T) {
	rt := newRuntime()

	tk := rt.Spawn(func(tk *cotask.Task, _ cotask.Values) (cotask.Values, error) {
		tk.Yield("first")
		return nil, nil
	})
	if got := tk.Resume(); got != nil {
		t.Fatalf("resume after final suspension = %v; want nil", got)
	}
}

func TestRunningSlotAndStatuses(t *testing.T) {
	rt := newRuntime()

	if rt.Running() != nil {
		t.Fatal("Running should be nil outside any task")
	}

	var parentStatus cotask.Status
	var sawChildRunning bool
	parent := rt.Spawn(func(p *cotask.Task, _ cotask.Values) (cotask.Values, error) {
		rt.Spawn(func(c *cotask.Task, _ cotask.Values) (cotask.Values, error) {
			parentStatus = p.Status()
			sawChildRunning = rt.Running() == c
			return nil, nil
		})
		return nil, nil
	})

	if parentStatus != cotask.Normal {
		t.Errorf("parent status inside child = %v; want normal", parentStatus)
	}
	if !sawChildRunning {
		t.Error("Running inside child should be the child")
	}
	if parent.Status() != cotask.Dead {
		t.Errorf("parent status = %v; want dead", parent.Status())
	}
	if rt.Running() != nil {
		t.Error("Running should be nil again after all tasks died")
	}
}

func TestResumeNotSuspendedPanics(t *testing.T) {
	rt := newRuntime()

	tk := rt.Spawn(func(*cotask.Task, cotask.Values) (cotask.Values, error) {
		return nil, nil
	})

	defer func() {
		v := recover()
		if v == nil {
			t.Fatal("resuming a dead task should panic")
		}
		if msg := v.(string); !strings.Contains(msg, "not suspended but dead") {
			t.Fatalf("panic message = %q", msg)
		}
	}()
	tk.Resume()
}

func TestResumeRunningTaskFailsIntoFuture(t *testing.T) {
	rt := newRuntime()

	tk := rt.Spawn(func(tk *cotask.Task, _ cotask.Values) (cotask.Values, error) {
		tk.Resume() // resuming the running task is a programmer error
		return nil, nil
	})

	_, err := tk.Future().Result()
	var pe *cotask.PanicError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v; want a *PanicError", err)
	}
	if !strings.Contains(pe.Error(), "not suspended but running") {
		t.Fatalf("panic error = %q", pe.Error())
	}
}

func TestPYieldOutsideRunningTaskPanics(t *testing.T) {
	rt := newRuntime()

	tk := rt.Spawn(func(tk *cotask.Task, _ cotask.Values) (cotask.Values, error) {
		tk.Yield()
		return nil, nil
	})

	defer func() {
		if v := recover(); v == nil {
			t.Fatal("PYield on a suspended task from outside should panic")
		}
	}()
	tk.PYield()
}

func TestThrowFailsFutureWithoutStack(t *testing.T) {
	rt := newRuntime()

	boom := errors.New("boom")
	tk := rt.Spawn(func(tk *cotask.Task, _ cotask.Values) (cotask.Values, error) {
		tk.Throw(boom)
		return cotask.Vals("unreached"), nil
	})

	if _, err := tk.Future().Result(); err != boom {
		t.Fatalf("err = %v; want the thrown error itself", err)
	}
}

func TestBodyPanicBecomesPanicError(t *testing.T) {
	rt := newRuntime()

	tk := rt.Spawn(func(*cotask.Task, cotask.Values) (cotask.Values, error) {
		panic("kaboom")
	})

	_, err := tk.Future().Result()
	var pe *cotask.PanicError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v; want a *PanicError", err)
	}
	if pe.Value != "kaboom" || len(pe.Stack) == 0 {
		t.Fatalf("PanicError = %+v; want value kaboom and a stack", pe)
	}
}

func TestPCallStraddlesSuspension(t *testing.T) {
	rt := newRuntime()

	tk := rt.Spawn(func(tk *cotask.Task, _ cotask.Values) (cotask.Values, error) {
		vals, err := tk.PCall(func() (cotask.Values, error) {
			got := tk.Yield("inside")
			return cotask.Vals(got.First().(int) * 2), nil
		})
		if err != nil {
			return nil, err
		}
		return vals, nil
	})

	tk.Resume(21)
	vals, err := tk.Future().Result()
	if err != nil || vals.First() != 42 {
		t.Fatalf("got %v, %v; want [42], nil", vals, err)
	}
}

func TestPCallCapturesPanicAfterSuspension(t *testing.T) {
	rt := newRuntime()

	tk := rt.Spawn(func(tk *cotask.Task, _ cotask.Values) (cotask.Values, error) {
		_, err := tk.PCall(func() (cotask.Values, error) {
			tk.Yield()
			panic("late")
		})
		var pe *cotask.PanicError
		if !errors.As(err, &pe) {
			return nil, errors.New("expected a PanicError")
		}
		return cotask.Vals("recovered"), nil
	})

	tk.Resume()
	vals, err := tk.Future().Result()
	if err != nil || vals.First() != "recovered" {
		t.Fatalf("got %v, %v; want [recovered], nil", vals, err)
	}
}

func TestSleepThenReturn(t *testing.T) {
	rt := newRuntime()

	tk := rt.Spawn(func(tk *cotask.Task, _ cotask.Values) (cotask.Values, error) {
		tk.Sleep(15 * time.Millisecond)
		return cotask.Vals(42), nil
	})

	vals, err := tk.Wait(100*time.Millisecond, 2*time.Millisecond)
	if err != nil || vals.First() != 42 {
		t.Fatalf("got %v, %v; want [42], nil", vals, err)
	}
}

func TestSleepRunsInFastEventThenEscapes(t *testing.T) {
	rt := newRuntime()
	host := rt.Host()

	var afterTimer, afterEscape bool
	tk := rt.Spawn(func(tk *cotask.Task, _ cotask.Values) (cotask.Values, error) {
		tk.Sleep(5 * time.Millisecond)
		afterTimer = host.InFastEvent()
		tk.SleepUntilNonFast()
		afterEscape = host.InFastEvent()
		return nil, nil
	})

	if _, err := tk.Wait(200*time.Millisecond, 0); err != nil {
		t.Fatal(err)
	}
	if !afterTimer {
		t.Error("resumption from a timer should be in fast-event context")
	}
	if afterEscape {
		t.Error("SleepUntilNonFast should land in normal context")
	}
}

func TestInMain(t *testing.T) {
	rt := newRuntime()

	if !rt.InMain() {
		t.Fatal("InMain should be true outside tasks")
	}
	var insideTask bool
	rt.Spawn(func(*cotask.Task, cotask.Values) (cotask.Values, error) {
		insideTask = rt.InMain()
		return nil, nil
	})
	if insideTask {
		t.Fatal("InMain should be false inside a task")
	}
}

func TestCoToTaskIdentity(t *testing.T) {
	rt := newRuntime()

	fn := cotask.CoToTask(func(_ *cotask.Task, _ cotask.YieldFunc, args cotask.Values) (cotask.Values, error) {
		return args, nil
	})
	tk := rt.Spawn(fn, 1, "a", true)
	vals, err := tk.Future().Result()
	if err != nil || len(vals) != 3 || vals[0] != 1 || vals[1] != "a" || vals[2] != true {
		t.Fatalf("got %v, %v; want [1 a true], nil", vals, err)
	}
}

func TestCoToTaskYields(t *testing.T) {
	rt := newRuntime()

	fn := cotask.CoToTask(func(_ *cotask.Task, yield cotask.YieldFunc, _ cotask.Values) (cotask.Values, error) {
		in := yield("ping")
		return cotask.Vals(in.First()), nil
	})
	tk := rt.Spawn(fn)
	if tk.Status() != cotask.Suspended {
		t.Fatal("generator should be parked at its yield")
	}
	tk.Resume("pong")
	vals, err := tk.Future().Result()
	if err != nil || vals.First() != "pong" {
		t.Fatalf("got %v, %v; want [pong], nil", vals, err)
	}
}
