package captcha

import (
	"fmt"
	"time"

	"rentora-utils/internal/scraper/browser"
	"rentora-utils/pkg/utils"
)

// injectRetryDelay gives a slow login page one chance to finish rendering
// its captcha widget before injection is declared failed.
const injectRetryDelay = 500 * time.Millisecond

// InjectSolution writes the solution token into every captcha response field
// on the page, invokes the widget's registered client-side callback when one
// exists, and dispatches synthetic input/change events so reactive forms
// observe the change. Injection is idempotent; when no target elements are
// present yet it retries once after a short delay before failing.
//
// The callback invocation is best-effort only: the authoritative signal of
// success is the injected token plus the login flow's own post-submit check.
func InjectSolution(session *browser.Session, solution string) error {
	count, err := evalInjection(session, solution)
	if err != nil {
		return err
	}

	if count == 0 {
		time.Sleep(injectRetryDelay)
		count, err = evalInjection(session, solution)
		if err != nil {
			return err
		}
	}

	if count == 0 {
		return fmt.Errorf("no captcha response fields found in page")
	}

	utils.GetLogger().WithField("fields", count).Debug("Captcha solution injected")
	return nil
}

// evalInjection runs the injection script and returns how many response
// fields received the token.
func evalInjection(session *browser.Session, solution string) (int, error) {
	js := fmt.Sprintf(`() => {
		const token = %q;
		let count = 0;

		const fields = document.querySelectorAll(
			'textarea[name="g-recaptcha-response"], input[name="g-recaptcha-response"], #g-recaptcha-response');
		for (const el of fields) {
			el.value = token;
			el.innerHTML = token;
			el.dispatchEvent(new Event('input', {bubbles: true}));
			el.dispatchEvent(new Event('change', {bubbles: true}));
			count++;
		}

		const widget = document.querySelector('.g-recaptcha');
		if (widget) {
			const callback = widget.getAttribute('data-callback');
			if (callback && typeof window[callback] === 'function') {
				try { window[callback](token); } catch (e) {}
			}
		}

		return count;
	}`, solution)

	result, err := session.Eval(js)
	if err != nil {
		return 0, fmt.Errorf("failed to inject captcha solution: %w", err)
	}

	return int(result.Num()), nil
}
