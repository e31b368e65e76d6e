package crawler

// fingerprintDetectorJS runs before any page script on every document.
// It patches fingerprinting and surveillance surfaces to record flags on a
// hidden per-page state object while preserving the original behavior via
// delegation. The page cannot observe a changed return value.
const fingerprintDetectorJS = `
(() => {
	if (window.__pa_state) { return; }
	const state = {
		canvasFingerprint: false,
		webglFingerprint: false,
		fontFingerprint: false,
		keylogger: false,
		formSnooping: false,
		serviceWorker: false,
		beacons: []
	};
	Object.defineProperty(window, '__pa_state', { value: state, enumerable: false });

	// Canvas readback
	const origToDataURL = HTMLCanvasElement.prototype.toDataURL;
	HTMLCanvasElement.prototype.toDataURL = function (...args) {
		state.canvasFingerprint = true;
		return origToDataURL.apply(this, args);
	};
	const origGetImageData = CanvasRenderingContext2D.prototype.getImageData;
	CanvasRenderingContext2D.prototype.getImageData = function (...args) {
		state.canvasFingerprint = true;
		return origGetImageData.apply(this, args);
	};

	// WebGL context acquisition
	const origGetContext = HTMLCanvasElement.prototype.getContext;
	HTMLCanvasElement.prototype.getContext = function (type, ...args) {
		if (type === 'webgl' || type === 'webgl2' || type === 'experimental-webgl') {
			state.webglFingerprint = true;
		}
		return origGetContext.call(this, type, ...args);
	};

	// Font probing
	if (document.fonts && document.fonts.check) {
		const origCheck = document.fonts.check.bind(document.fonts);
		document.fonts.check = function (...args) {
			state.fontFingerprint = true;
			return origCheck(...args);
		};
	}

	// Global key listeners
	const keyEvents = new Set(['keydown', 'keypress', 'keyup']);
	for (const target of [document, window]) {
		const origAdd = target.addEventListener.bind(target);
		target.addEventListener = function (type, ...rest) {
			if (keyEvents.has(type)) { state.keylogger = true; }
			return origAdd(type, ...rest);
		};
	}

	// Form value snooping
	const desc = Object.getOwnPropertyDescriptor(HTMLInputElement.prototype, 'value');
	if (desc && desc.get) {
		Object.defineProperty(HTMLInputElement.prototype, 'value', {
			get: function () {
				state.formSnooping = true;
				return desc.get.call(this);
			},
			set: desc.set,
			configurable: true
		});
	}

	// Beacon exfiltration
	if (navigator.sendBeacon) {
		const origBeacon = navigator.sendBeacon.bind(navigator);
		navigator.sendBeacon = function (url, data) {
			if (state.beacons.length < 50) {
				state.beacons.push({ url: String(url), hasData: data !== undefined && data !== null });
			}
			return origBeacon(url, data);
		};
	}

	// Service worker registration
	if (navigator.serviceWorker && navigator.serviceWorker.register) {
		const origRegister = navigator.serviceWorker.register.bind(navigator.serviceWorker);
		navigator.serviceWorker.register = function (...args) {
			state.serviceWorker = true;
			return origRegister(...args);
		};
	}
})();
`

// collectPageStateJS reads everything the analysis needs out of the page
// after settling: the instrumentation flags, inline script shapes, storage
// keys, same-host links, and a bounded body text prefix.
const collectPageStateJS = `
(() => {
	const state = window.__pa_state || {};
	const signatures = ['gtag(', 'ga(', 'fbq(', 'dataLayer', '_paq', 'ttq.', 'twq(', 'snaptr(', 'pintrk(', 'hj(', 'clarity(', '_gaq', 'ym(', 'amplitude', 'mixpanel'];
	const inlineScripts = [];
	for (const s of document.querySelectorAll('script:not([src])')) {
		const text = s.textContent || '';
		if (!text.trim()) { continue; }
		inlineScripts.push({
			length: text.length,
			trackerSignature: signatures.some((sig) => text.includes(sig))
		});
		if (inlineScripts.length >= 100) { break; }
	}

	const storageEntries = (store) => {
		const entries = {};
		try {
			for (let i = 0; i < store.length && i < 100; i++) {
				const key = store.key(i);
				entries[key] = String(store.getItem(key) || '').slice(0, 200);
			}
		} catch (e) { }
		return entries;
	};

	const links = [];
	const seen = new Set();
	for (const a of document.querySelectorAll('a[href]')) {
		try {
			const u = new URL(a.href, location.href);
			if (u.host === location.host && !seen.has(u.href) && (u.protocol === 'http:' || u.protocol === 'https:')) {
				seen.add(u.href);
				links.push(u.href);
				if (links.length >= 200) { break; }
			}
		} catch (e) { }
	}

	return {
		fingerprints: {
			canvas: !!state.canvasFingerprint,
			webgl: !!state.webglFingerprint,
			font: !!state.fontFingerprint,
			keylogger: !!state.keylogger,
			formSnooping: !!state.formSnooping,
			serviceWorker: !!state.serviceWorker,
			beacons: state.beacons || []
		},
		inlineScripts: inlineScripts,
		localStorage: storageEntries(window.localStorage),
		sessionStorage: storageEntries(window.sessionStorage),
		internalLinks: links,
		bodyText: (document.body && document.body.innerText || '').slice(0, 5000)
	};
})()
`
